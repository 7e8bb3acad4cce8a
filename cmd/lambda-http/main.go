package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/bootstrap"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/telemetry"
)

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambdaV2

	buildRouter = func() (*gin.Engine, error) {
		app, err := bootstrap.Build(config.Load())
		if err != nil {
			return nil, err
		}
		return app.Router, nil
	}
)

func initApp() {
	router, err := buildRouter()
	if err != nil {
		initErr = err
		telemetry.Error("lambda.http.bootstrap_failed", map[string]any{"error": err})
		return
	}
	ginLambda = ginadapter.NewV2(router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil || ginLambda == nil {
		// a 503 envelope lets API Gateway answer instead of surfacing a Lambda error
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusServiceUnavailable,
			Body:       `{"error":{"code":"bootstrap_failed","message":"service is starting up or misconfigured"}}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
	withGatewayRequestID(&req)
	return ginLambda.ProxyWithContext(ctx, req)
}

// withGatewayRequestID forwards API Gateway's request id so API logs line up
// with access logs when the client sent none.
func withGatewayRequestID(req *events.APIGatewayV2HTTPRequest) {
	if req.RequestContext.RequestID == "" {
		return
	}
	for k := range req.Headers {
		if http.CanonicalHeaderKey(k) == "X-Request-Id" {
			return
		}
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers["x-request-id"] = req.RequestContext.RequestID
}

func main() {
	telemetry.SetService("sourcing-lambda-http")
	lambda.Start(handler)
}
