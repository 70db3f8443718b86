package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nugget/chatty/internal/offpath"
)

// FileTools reads and writes files on the model's behalf.
type FileTools struct {
	workspacePath string
}

// NewFileTools creates the file_tool capability. When workspacePath is
// non-empty every path is resolved against it and may not escape it.
// An empty workspacePath leaves paths unrestricted.
func NewFileTools(workspacePath string) *FileTools {
	return &FileTools{workspacePath: workspacePath}
}

func (ft *FileTools) ID() ToolID { return FileTool }

func (ft *FileTools) Description() string {
	return "Reads or writes a local file. Arguments: 'action' ('read' or 'write'), 'filename' (str), 'content' (str, required for write)."
}

func (ft *FileTools) Run(ctx context.Context, args map[string]any) (string, error) {
	action, _ := stringArg(args, "action")
	filename, ok := stringArg(args, "filename")
	if !ok || strings.TrimSpace(filename) == "" {
		return "Error: 'filename' argument is required.", nil
	}

	switch action {
	case "read":
		return ft.read(ctx, filename)
	case "write":
		content, ok := stringArg(args, "content")
		if !ok {
			return "Error: 'content' argument is required for 'write' action.", nil
		}
		return ft.write(ctx, filename, content)
	default:
		return fmt.Sprintf("Error: Invalid action '%s'. Use 'read' or 'write'.", action), nil
	}
}

func (ft *FileTools) read(ctx context.Context, filename string) (string, error) {
	absPath, err := ft.resolvePath(filename)
	if err != nil {
		return fmt.Sprintf("Error reading file '%s': %v", filename, err), nil
	}

	data, err := offpath.Run(ctx, func() ([]byte, error) {
		return os.ReadFile(absPath)
	})
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("Error: File not found at '%s'.", filename), nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", err
	case err != nil:
		return fmt.Sprintf("Error reading file '%s': %v", filename, err), nil
	}

	return fmt.Sprintf("File '%s' content:\n---\n%s\n---", filename, data), nil
}

func (ft *FileTools) write(ctx context.Context, filename, content string) (string, error) {
	absPath, err := ft.resolvePath(filename)
	if err != nil {
		return fmt.Sprintf("Error writing to file '%s': %v", filename, err), nil
	}

	_, err = offpath.Run(ctx, func() (struct{}, error) {
		if ft.workspacePath != "" {
			if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
				return struct{}{}, fmt.Errorf("create directory: %w", err)
			}
		}
		return struct{}{}, os.WriteFile(absPath, []byte(content), 0o644)
	})
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", err
	case err != nil:
		return fmt.Sprintf("Error writing to file '%s': %v", filename, err), nil
	}
	return fmt.Sprintf("Content successfully written to '%s'.", filename), nil
}

// resolvePath converts a path to an absolute path within the workspace.
// Returns an error if the path would escape the workspace.
func (ft *FileTools) resolvePath(path string) (string, error) {
	if ft.workspacePath == "" {
		return filepath.Clean(path), nil
	}

	workspaceAbs, err := filepath.Abs(ft.workspacePath)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}

	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(workspaceAbs, path)
	}
	absPath = filepath.Clean(absPath)

	rel, err := filepath.Rel(workspaceAbs, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return absPath, nil
}
