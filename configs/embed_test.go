package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTemplates_AreValidYAML(t *testing.T) {
	for name, tmpl := range map[string]string{
		"project": ProjectConfigTemplate,
		"user":    UserConfigTemplate,
	} {
		t.Run(name, func(t *testing.T) {
			var parsed map[string]any
			require.NoError(t, yaml.Unmarshal([]byte(tmpl), &parsed))
			assert.NotEmpty(t, parsed)
		})
	}
}

func TestProjectTemplate_DeclaresIssueKind(t *testing.T) {
	assert.Contains(t, ProjectConfigTemplate, "kind: issue")
	assert.NotContains(t, UserConfigTemplate, "\nkinds:")
}
