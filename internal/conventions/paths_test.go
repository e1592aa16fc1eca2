package conventions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/appforge/appforge/internal/conventions"
)

func TestWorkspaceDirName(t *testing.T) {
	tests := map[string]struct {
		projectName string
		id          string
		expName     string
	}{
		"simple name":            {projectName: "todo", id: "01ABC", expName: "todo-01abc"},
		"spaces become dashes":   {projectName: "My Todo App", id: "01ABC", expName: "my-todo-app-01abc"},
		"symbols become dashes":  {projectName: "shop.v2!", id: "01ABC", expName: "shop-v2-01abc"},
		"empty name gets a slug": {projectName: "  ", id: "01ABC", expName: "project-01abc"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expName, conventions.WorkspaceDirName(test.projectName, test.id))
		})
	}
}
