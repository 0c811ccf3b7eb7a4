package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plrectco/dcf/internal/domain"
	"github.com/plrectco/dcf/internal/logger"
	"github.com/plrectco/dcf/internal/service"
	"github.com/plrectco/dcf/internal/util"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type ApiHandler struct {
	ValuationService service.ValuationService
	Config           util.Config
	Logger           *zap.SugaredLogger
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(m.logRequestMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, map[string]string{"message": "welcome to dcf"})
	})
	router.POST("/dcf", m.dcf)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	router := m.InitializeRouterEngine()
	return router.Run(fmt.Sprintf(":%d", port))
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	logger.FromContext(c.Request.Context()).Errorw("request failed", "status", code, "error", err.Error())
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

// invalid input is the caller's fault, everything else is ours
func statusCodeForError(err error) int {
	var invalid *domain.InvalidInputError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// logRequestMiddleware tags the request with an id and puts a logger
// carrying it into the request context.
func (m ApiHandler) logRequestMiddleware(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	c.Writer.Header().Set(requestIDHeader, requestID)

	base := m.Logger
	if base == nil {
		base = zap.S()
	}
	log := base.With(
		"requestID", requestID,
		"method", c.Request.Method,
		"route", c.Request.URL.Path,
	)
	c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), log))

	start := time.Now().UTC()
	c.Next()

	log.Infow(
		"handled request",
		"status", c.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
		"ip", c.ClientIP(),
	)
}
