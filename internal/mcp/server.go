package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/nick-dorsch/todo/internal/store"
	"github.com/nick-dorsch/todo/pkg/models"
)

// NewServer creates a new MCP server exposing the task store as tools.
func NewServer(s *store.Store) *server.MCPServer {
	srv := server.NewMCPServer("Todo", "0.1.0")

	statuses := make([]string, len(models.Statuses))
	for i, st := range models.Statuses {
		statuses[i] = string(st)
	}

	srv.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a new task. It gets the next sequential id and status TODO."),
		mcp.WithString("description", mcp.Description("Task description"), mcp.Required()),
		mcp.WithNumber("priority", mcp.Description("Priority (1 is most urgent, 10 least; out of range values are clamped)"), mcp.Required()),
	), addTaskHandler(s))

	srv.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks. PRIORITY returns all tasks, most urgent first."),
		mcp.WithString("filter", mcp.Description("Filter (defaults to ALL)"), mcp.Enum(store.ValidFilters()...)),
	), listTasksHandler(s))

	srv.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(s))

	srv.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update a task's description and/or priority. Omitted fields keep their value."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithNumber("priority", mcp.Description("New priority")),
	), updateTaskHandler(s))

	srv.AddTool(mcp.NewTool("update_task_status",
		mcp.WithDescription("Update task status."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("status", mcp.Description("New status"), mcp.Required(), mcp.Enum(statuses...)),
	), updateTaskStatusHandler(s))

	srv.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task. Remaining tasks are renumbered so ids stay 1..N."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(s))

	srv.AddTool(mcp.NewTool("summary",
		mcp.WithDescription("Count tasks per status."),
	), summaryHandler(s))

	return srv
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func addTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description := mcp.ParseString(request, "description", "")
		priority := mcp.ParseInt(request, "priority", models.MaxPriority)

		task, err := s.Add(ctx, priority, description)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(task)
	}
}

func listTasksHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := mcp.ParseString(request, "filter", store.FilterAll)

		tasks, err := s.List(filter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"tasks": tasks})
	}
}

func getTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt(request, "id", 0)

		task, err := s.Get(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(task)
	}
}

func updateTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt(request, "id", 0)

		task, err := s.Get(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		args, _ := request.Params.Arguments.(map[string]any)
		description := task.Description
		if d, ok := args["description"].(string); ok {
			description = d
		}
		priority := task.Priority
		if _, ok := args["priority"]; ok {
			priority = mcp.ParseInt(request, "priority", task.Priority)
		}

		if err := s.Update(ctx, id, priority, description); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		updated, err := s.Get(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(updated)
	}
}

func updateTaskStatusHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt(request, "id", 0)
		status := mcp.ParseString(request, "status", "")

		if err := s.UpdateStatus(ctx, id, status); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		task, err := s.Get(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(task)
	}
}

func deleteTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseInt(request, "id", 0)

		if err := s.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d deleted. Remaining tasks were renumbered.", id)), nil
	}
}

func summaryHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats := s.Stats()
		return jsonResult(map[string]any{
			"total":     stats.Total,
			"by_status": stats.ByStatus,
		})
	}
}
