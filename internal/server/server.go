// Package server exposes a texture directory over HTTP.
package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ktxkit/internal/logger"
	"github.com/samcharles93/ktxkit/internal/texcache"
	"github.com/samcharles93/ktxkit/internal/version"
	"github.com/samcharles93/ktxkit/pkg/ktx"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderFaceSize  = "X-Ktx-Face-Size"
	HeaderWidth     = "X-Ktx-Width"
	HeaderHeight    = "X-Ktx-Height"

	// MIMEKTX is the registered media type for KTX 1 containers.
	MIMEKTX = "image/ktx"
)

type Server struct {
	cache *texcache.Cache
	log   logger.Logger
}

func NewServer(cache *texcache.Cache, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{cache: cache, log: log.With("component", "server")}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(s.requestID)

	e.GET("/v1/version", s.handleVersion)
	e.GET("/v1/textures", s.handleList)
	e.GET("/v1/textures/:name", s.handleDescribe)
	e.DELETE("/v1/textures/:name", s.handleEvict)
	e.GET("/v1/textures/:name/keyvalues", s.handleKeyValues)
	e.GET("/v1/textures/:name/levels/:mip/faces/:face", s.handleFace)
	e.GET("/v1/textures/:name/raw", s.handleRaw)
}

// requestID tags every response with a request id, reusing the caller's if
// one was sent.
func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(HeaderRequestID, id)
		start := time.Now()
		err := next(c)
		s.log.Debug("request", "id", id, "method", c.Request().Method,
			"path", c.Request().URL.Path, "elapsed", time.Since(start))
		return err
	}
}

type listResponse struct {
	Textures []string `json:"textures"`
}

type keyValuesResponse struct {
	Name      string             `json:"name"`
	KeyValues []ktx.KeyValueInfo `json:"key_values"`
}

type describeResponse struct {
	Name string `json:"name"`
	ktx.Summary
}

type evictResponse struct {
	Name    string `json:"name"`
	Evicted bool   `json:"evicted"`
}

func (s *Server) handleVersion(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, version.Resolve())
}

func (s *Server) handleList(c *echo.Context) error {
	names, err := s.cache.List()
	if err != nil {
		return s.writeCacheError(c, err)
	}
	if names == nil {
		names = []string{}
	}
	return writeJSON(c, http.StatusOK, listResponse{Textures: names})
}

func (s *Server) handleDescribe(c *echo.Context) error {
	h, err := s.cache.Acquire(c.Param("name"))
	if err != nil {
		return s.writeCacheError(c, err)
	}
	defer func() { _ = h.Release() }()
	return writeJSON(c, http.StatusOK, describeResponse{Name: h.Name(), Summary: ktx.Describe(h.KTX())})
}

func (s *Server) handleEvict(c *echo.Context) error {
	name := c.Param("name")
	return writeJSON(c, http.StatusOK, evictResponse{Name: name, Evicted: s.cache.Evict(name)})
}

func (s *Server) handleKeyValues(c *echo.Context) error {
	h, err := s.cache.Acquire(c.Param("name"))
	if err != nil {
		return s.writeCacheError(c, err)
	}
	defer func() { _ = h.Release() }()
	return writeJSON(c, http.StatusOK, keyValuesResponse{
		Name:      h.Name(),
		KeyValues: ktx.DescribeKeyValues(h.KTX().KeyValues()),
	})
}

func (s *Server) handleFace(c *echo.Context) error {
	mip, err := strconv.Atoi(c.Param("mip"))
	if err != nil {
		return writeBadRequest(c, "mip must be an integer")
	}
	face, err := strconv.Atoi(c.Param("face"))
	if err != nil {
		return writeBadRequest(c, "face must be an integer")
	}

	h, err := s.cache.Acquire(c.Param("name"))
	if err != nil {
		return s.writeCacheError(c, err)
	}
	defer func() { _ = h.Release() }()

	k := h.KTX()
	v := k.MipFaceTexelsData(mip, face)
	if v == nil {
		return writeNotFound(c, "no face "+strconv.Itoa(face)+" at level "+strconv.Itoa(mip))
	}
	defer func() { _ = v.Release() }()

	hdr := k.Header()
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
	res.Header().Set(echo.HeaderContentLength, strconv.FormatUint(v.Len(), 10))
	res.Header().Set(HeaderFaceSize, strconv.FormatUint(v.Len(), 10))
	res.Header().Set(HeaderWidth, strconv.FormatUint(uint64(hdr.EvalPixelWidth(uint32(mip))), 10))
	res.Header().Set(HeaderHeight, strconv.FormatUint(uint64(hdr.EvalPixelHeight(uint32(mip))), 10))
	res.WriteHeader(http.StatusOK)
	_, err = res.Write(v.Bytes())
	return err
}

// handleRaw serves the whole container. Compressed files are served
// decompressed.
func (s *Server) handleRaw(c *echo.Context) error {
	h, err := s.cache.Acquire(c.Param("name"))
	if err != nil {
		return s.writeCacheError(c, err)
	}
	defer func() { _ = h.Release() }()

	c.Response().Header().Set(echo.HeaderContentType, MIMEKTX)
	http.ServeContent(c.Response(), c.Request(), h.Name(), time.Time{},
		bytes.NewReader(h.KTX().Storage().Data()))
	return nil
}

func (s *Server) writeCacheError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, texcache.ErrInvalidName):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, texcache.ErrNotFound):
		return writeNotFound(c, err.Error())
	case errors.Is(err, ktx.ErrFormat):
		return writeError(c, http.StatusUnprocessableEntity, "invalid_texture_error", err.Error())
	case errors.Is(err, texcache.ErrClosed):
		return writeError(c, http.StatusServiceUnavailable, "unavailable_error", err.Error())
	}
	s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
	return writeError(c, http.StatusInternalServerError, "server_error", "internal error")
}
