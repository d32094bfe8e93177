package api

import (
	"github.com/gin-gonic/gin"
)

const authRealm = "SecNewsHub"

// BasicAuth 用 gin 自带的 Basic Auth 保护整个站点，openPaths 中的路由（如 /health）不做认证
func BasicAuth(user, pass string, openPaths ...string) gin.HandlerFunc {
	check := gin.BasicAuthForRealm(gin.Accounts{user: pass}, authRealm)

	open := make(map[string]struct{}, len(openPaths))
	for _, p := range openPaths {
		open[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := open[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		check(c)
	}
}
