package server

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// SonicSerializer implements echo.JSONSerializer with sonic's
// std-compatible configuration.
type SonicSerializer struct {
	api sonic.API
}

func NewSonicSerializer() *SonicSerializer {
	return &SonicSerializer{api: sonic.ConfigStd}
}

func (s *SonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := s.api.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (s *SonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := s.api.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(400, fmt.Sprintf("corpo JSON inválido: %v", err)).SetInternal(err)
	}
	return nil
}
