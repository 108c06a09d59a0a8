package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// HabitIDParam はパスパラメータ :id を読み取ります。
func HabitIDParam(c *gin.Context) (uint, error) {
	var id uint
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, fmt.Errorf("invalid format for parameter id: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid format for parameter id: must be positive")
	}
	return id, nil
}

// DateQuery は任意のクエリ ?date=YYYY-MM-DD を読み取ります。指定が無ければ nil を返します。
func DateQuery(c *gin.Context) (*openapi_types.Date, error) {
	var date *openapi_types.Date
	if err := runtime.BindQueryParameter("form", true, false, "date", c.Request.URL.Query(), &date); err != nil {
		return nil, fmt.Errorf("invalid format for parameter date: %w", err)
	}
	return date, nil
}
