// Package graph maps the task repository onto named GraphQL query and
// mutation operations. Every resolver is scoped to the authenticated
// principal carried in the request context.
package graph

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/hunghnUIT/seft-203/internal/middleware"
	"github.com/hunghnUIT/seft-203/internal/models"
)

// ErrUnauthorized is returned by resolvers when no principal reached
// the schema layer.
var ErrUnauthorized = errors.New("unauthorized")

// TaskService is the repository surface the resolvers delegate to.
// Required arguments are enforced as non-null by the schema; the
// repository does not re-validate them.
type TaskService interface {
	Create(ctx context.Context, email, note string) (*models.Task, error)
	List(ctx context.Context, email string) ([]models.Task, error)
	Get(ctx context.Context, email, taskID string) (*models.Task, error)
	Update(ctx context.Context, email, taskID string, update models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, email, taskID string) error
}

var taskType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Task",
	Fields: graphql.Fields{
		"userId":    &graphql.Field{Type: graphql.String},
		"taskId":    &graphql.Field{Type: graphql.String},
		"note":      &graphql.Field{Type: graphql.String},
		"isChecked": &graphql.Field{Type: graphql.Boolean},
	},
})

func owner(p graphql.ResolveParams) (string, error) {
	email, ok := middleware.Principal(p.Context)
	if !ok {
		return "", ErrUnauthorized
	}
	return email, nil
}

// NewSchema builds the executable schema over the given repository.
func NewSchema(tasks TaskService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Query",
		Description: "Root Query",
		Fields: graphql.Fields{
			"task": &graphql.Field{
				Type:        taskType,
				Description: "A Single Task",
				Args: graphql.FieldConfigArgument{
					"taskId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, err := owner(p)
					if err != nil {
						return nil, err
					}
					task, err := tasks.Get(p.Context, email, p.Args["taskId"].(string))
					if err != nil || task == nil {
						return nil, err
					}
					return task, nil
				},
			},
			"tasks": &graphql.Field{
				Type:        graphql.NewList(taskType),
				Description: "List of all Tasks",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, err := owner(p)
					if err != nil {
						return nil, err
					}
					return tasks.List(p.Context, email)
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Mutation",
		Description: "Root Mutation",
		Fields: graphql.Fields{
			"createTask": &graphql.Field{
				Type:        taskType,
				Description: "Add a new task",
				Args: graphql.FieldConfigArgument{
					"note": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, err := owner(p)
					if err != nil {
						return nil, err
					}
					return tasks.Create(p.Context, email, p.Args["note"].(string))
				},
			},
			"updateTask": &graphql.Field{
				Type:        taskType,
				Description: "Update a task",
				Args: graphql.FieldConfigArgument{
					"taskId":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"note":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"isChecked": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, err := owner(p)
					if err != nil {
						return nil, err
					}
					note := p.Args["note"].(string)
					checked := p.Args["isChecked"].(bool)
					return tasks.Update(p.Context, email, p.Args["taskId"].(string), models.TaskUpdate{
						Note:      &note,
						IsChecked: &checked,
					})
				},
			},
			"deleteTask": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Delete a task",
				Args: graphql.FieldConfigArgument{
					"taskId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, err := owner(p)
					if err != nil {
						return nil, err
					}
					if err := tasks.Delete(p.Context, email, p.Args["taskId"].(string)); err != nil {
						return false, err
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
