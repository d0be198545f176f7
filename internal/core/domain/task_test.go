package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTask_InputPropertyPaths_DefaultOnly(t *testing.T) {
	task := &Task{Inputs: []InternedString{NewInternedString("src/**/*.go")}}
	props := task.InputPropertyPaths()
	assert.Len(t, props, 1)
	assert.Len(t, props[mainPropertyName], 1)
}

func TestTask_InputPropertyPaths_NamedAndDefault(t *testing.T) {
	task := &Task{
		Inputs: []InternedString{NewInternedString("src/**/*.go")},
		InputProperties: map[string][]InternedString{
			"config": {NewInternedString("config/*.yaml")},
		},
	}
	props := task.InputPropertyPaths()
	assert.Len(t, props, 2)
	assert.Contains(t, props, mainPropertyName)
	assert.Contains(t, props, "config")
}

func TestTask_InputPropertyPaths_Empty(t *testing.T) {
	task := &Task{}
	props := task.InputPropertyPaths()
	assert.Empty(t, props)
}

func TestTask_IsOutputCacheable(t *testing.T) {
	task := &Task{
		CacheableOutputProperties: []InternedString{NewInternedString("main")},
	}
	assert.True(t, task.IsOutputCacheable("main"))
	assert.False(t, task.IsOutputCacheable("extra"))
}
