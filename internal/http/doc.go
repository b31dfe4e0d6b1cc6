// Package http provides the net/http adapter for the converter.
//
// Routes mount under the API base path (default /api) and the share base path
// (default /s):
//   - Conversion: POST /api/convert, GET /api/download?url=
//   - Image proxy: GET /api/image/{token}
//   - Sharing: POST /api/share, GET /s/{id}, GET /s/{id}/raw
//
// Host applications can register handlers on their own mux/router as needed.
package http
