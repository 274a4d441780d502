package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"belegpilot/src/pkg/store"
)

// storeError maps a store lookup failure onto the right HTTP status: 404
// for ErrNotFound, 500 for anything else (there is nothing else today,
// but the in-memory store's contract doesn't promise it stays that way).
func storeError(c echo.Context, err error) error {
	var notFound *store.ErrNotFound
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func conflict(c echo.Context, msg string) error {
	return c.JSON(http.StatusConflict, map[string]string{"error": msg})
}

// uploadToken is the random 12-hex-char collision-avoidance prefix §5
// requires for every uploaded file name.
func uploadToken() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(b)
}

// allowedUploadExt is §6's upload-suffix allowlist, keyed lowercase with
// the leading dot, matching filepath.Ext's own shape.
var allowedUploadExt = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".bmp":  true,
	".webp": true,
}
