package router

import "github.com/gin-gonic/gin"

// Module registers a feature's routes. Modules get their dependencies through
// their constructors; see InitModules.
type Module interface {
	Register(rg *gin.RouterGroup)
}
