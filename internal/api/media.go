package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const audioMimeType = "audio/mpeg"

// byteRange is one parsed, satisfiable byte range.
type byteRange struct {
	start  int64
	length int64
}

// ServeDetectionAudio streams the stored clip for a recording, honoring a
// single byte-range request: 206 with Content-Range for satisfiable ranges,
// 416 when the range lies beyond the clip, 200 with the full body otherwise.
func (c *Controller) ServeDetectionAudio(ctx echo.Context) error {
	clip, size, err := c.DS.OpenClip(ctx.Param("id"))
	if err != nil {
		return c.handleError(ctx, err)
	}
	defer clip.Close()

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, audioMimeType)
	resp.Header().Set("Accept-Ranges", "bytes")

	rangeHeader := ctx.Request().Header.Get("Range")
	if rangeHeader == "" {
		resp.Header().Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))
		resp.WriteHeader(http.StatusOK)
		_, err = io.Copy(resp, clip)
		return err
	}

	r, ok, satisfiable := parseRange(rangeHeader, size)
	if !ok {
		// Unparseable Range headers are ignored and the full body served.
		resp.Header().Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))
		resp.WriteHeader(http.StatusOK)
		_, err = io.Copy(resp, clip)
		return err
	}
	if !satisfiable {
		resp.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		return ctx.JSON(http.StatusRequestedRangeNotSatisfiable,
			map[string]string{"error": "Requested range not satisfiable"})
	}

	if _, err := clip.Seek(r.start, io.SeekStart); err != nil {
		return c.handleError(ctx, err)
	}
	resp.Header().Set("Content-Range",
		fmt.Sprintf("bytes %d-%d/%d", r.start, r.start+r.length-1, size))
	resp.Header().Set(echo.HeaderContentLength, strconv.FormatInt(r.length, 10))
	resp.WriteHeader(http.StatusPartialContent)
	_, err = io.CopyN(resp, clip, r.length)
	return err
}

// parseRange interprets a single-range "bytes=" header against a blob of the
// given size. ok is false when the header is not understood at all;
// satisfiable is false when it parses but lies outside the blob.
func parseRange(header string, size int64) (r byteRange, ok, satisfiable bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return byteRange{}, false, false
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		// Multi-range requests are not supported, fall back to full body.
		return byteRange{}, false, false
	}

	start, end, found := strings.Cut(spec, "-")
	if !found {
		return byteRange{}, false, false
	}
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	if start == "" {
		// Suffix form: last N bytes.
		n, err := strconv.ParseInt(end, 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false, false
		}
		if n > size {
			n = size
		}
		return byteRange{start: size - n, length: n}, true, size > 0
	}

	startPos, err := strconv.ParseInt(start, 10, 64)
	if err != nil || startPos < 0 {
		return byteRange{}, false, false
	}
	if startPos >= size {
		return byteRange{}, true, false
	}

	endPos := size - 1
	if end != "" {
		endPos, err = strconv.ParseInt(end, 10, 64)
		if err != nil || endPos < startPos {
			return byteRange{}, false, false
		}
		if endPos >= size {
			endPos = size - 1
		}
	}
	return byteRange{start: startPos, length: endPos - startPos + 1}, true, true
}
