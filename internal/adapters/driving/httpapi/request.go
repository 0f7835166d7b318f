package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// askRequest is the body of POST /ask.
type askRequest struct {
	Question string `json:"question"`
	BookID   string `json:"book_id"`
	TopK     int    `json:"top_k"`
}

var errInvalidBody = errors.New("invalid request body")

// parseAskRequest reads JSON, base64-wrapped JSON (Content-Transfer-Encoding:
// base64) or URL-encoded form bodies. An empty body yields an empty request,
// which fails question validation downstream.
func parseAskRequest(r *http.Request, maxBytes int64) (askRequest, error) {
	var req askRequest

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return req, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if int64(len(data)) > maxBytes {
		return req, fmt.Errorf("%w: larger than %d bytes", errInvalidBody, maxBytes)
	}

	body := strings.TrimSpace(string(data))
	if strings.EqualFold(r.Header.Get("Content-Transfer-Encoding"), "base64") {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return req, fmt.Errorf("%w: bad base64", errInvalidBody)
		}
		body = strings.TrimSpace(string(decoded))
	}
	if body == "" {
		return req, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		return parseForm(body)
	}

	if err := json.Unmarshal([]byte(body), &req); err == nil {
		return req, nil
	}
	// Some clients URL-encode the JSON body.
	if strings.Contains(body, "%") {
		if unescaped, err := url.QueryUnescape(body); err == nil {
			if err := json.Unmarshal([]byte(unescaped), &req); err == nil {
				return req, nil
			}
		}
	}
	if strings.Contains(body, "=") && !strings.HasPrefix(body, "{") {
		return parseForm(body)
	}
	return askRequest{}, fmt.Errorf("%w: expected JSON", errInvalidBody)
}

func parseForm(body string) (askRequest, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return askRequest{}, fmt.Errorf("%w: bad form encoding", errInvalidBody)
	}
	req := askRequest{
		Question: values.Get("question"),
		BookID:   values.Get("book_id"),
	}
	if raw := values.Get("top_k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return askRequest{}, fmt.Errorf("%w: top_k must be an integer", errInvalidBody)
		}
		req.TopK = k
	}
	return req, nil
}
