package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/awslabs/aws-lambda-go-api-proxy/gorillamux"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	appConfig "github.com/hunghnUIT/seft-203/internal/config"
	"github.com/hunghnUIT/seft-203/internal/core"
	"github.com/hunghnUIT/seft-203/internal/database"
	"github.com/hunghnUIT/seft-203/internal/graph"
	"github.com/hunghnUIT/seft-203/internal/mailer"
	"github.com/hunghnUIT/seft-203/internal/middleware"
)

var muxLambda *gorillamux.GorillaMuxAdapter

func init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}

	cfg := appConfig.Load()
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		panic(err)
	}

	store := database.New(
		dynamodb.NewFromConfig(awsCfg),
		cfg.TableName,
		cfg.IndexName,
		logger,
	)
	mail := mailer.New(sesv2.NewFromConfig(awsCfg), cfg.SenderAddress, logger)

	users := core.NewService(store, mail, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.VerifyTokenTTL, logger)
	tasks := core.NewTaskService(store, logger)

	schema, err := graph.NewSchema(tasks)
	if err != nil {
		panic(err)
	}

	authorizer := middleware.NewAuthorizer(
		[]byte(cfg.JWTSecret),
		middleware.UserResolverFunc(users.GetUserByEmail),
	)

	handler := core.NewHandler(users, tasks, schema, logger)
	router := mux.NewRouter()
	handler.Routes(router, authorizer)

	muxLambda = gorillamux.New(router)
}

func main() {
	lambda.Start(muxLambda.ProxyWithContext)
}
