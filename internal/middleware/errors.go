package middleware

import "github.com/labstack/echo/v4"

// reject writes the API error envelope without depending on the handler package.
func reject(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"status": "error", "message": message})
}
