package main

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	appConfig "github.com/hunghnUIT/seft-203/internal/config"
	"github.com/hunghnUIT/seft-203/internal/core"
	"github.com/hunghnUIT/seft-203/internal/database"
	"github.com/hunghnUIT/seft-203/internal/middleware"
)

var authorizer *middleware.Authorizer

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
	// The authorizer only resolves users; it never sends mail.
	users := core.NewService(store, nil, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.VerifyTokenTTL, logger)

	authorizer = middleware.NewAuthorizer(
		[]byte(cfg.JWTSecret),
		middleware.UserResolverFunc(users.GetUserByEmail),
	)
}

func policy(principalID, effect, resource string, email string) events.APIGatewayCustomAuthorizerResponse {
	res := events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principalID,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   effect,
					Resource: []string{resource},
				},
			},
		},
	}
	if email != "" {
		res.Context = map[string]interface{}{"userEmail": email}
	}
	return res
}

func handle(ctx context.Context, event events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	token := strings.TrimPrefix(event.AuthorizationToken, "Bearer ")

	decision, err := authorizer.Authorize(ctx, token, event.MethodArn)
	if err != nil {
		return events.APIGatewayCustomAuthorizerResponse{}, err
	}
	if !decision.Allowed {
		return policy("user", "Deny", event.MethodArn, ""), nil
	}
	return policy(decision.Email, "Allow", event.MethodArn, decision.Email), nil
}

func main() {
	lambda.Start(handle)
}
