package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, IsInvalidInput(&SchemaError{Table: "inventory", Column: "可用数"}))
	assert.True(t, IsInvalidInput(fmt.Errorf("load: %w", &DataError{Table: "sales ratio", Row: 3, Err: errors.New("bad")})))
	assert.True(t, IsInvalidInput(fmt.Errorf("engine: %w", ErrInvalidSafetyFactor)))
	assert.True(t, IsInvalidInput(ErrNoActiveColors))
	assert.False(t, IsInvalidInput(errors.New("redis down")))
	assert.False(t, IsInvalidInput(nil))
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Table: "inventory", Column: "商品名称"}
	assert.Equal(t, "inventory table is missing required column: 商品名称", err.Error())
}
