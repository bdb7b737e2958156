package domain_test

import (
	"testing"

	"github.com/aretw0/relux/pkg/domain"
	"github.com/stretchr/testify/assert"
)

type increment struct{ By int }

type named struct{}

func (named) ActionName() string { return "custom.name" }

func TestActionName(t *testing.T) {
	assert.Equal(t, "domain_test.increment", domain.ActionName(increment{By: 1}))
	assert.Equal(t, "domain_test.increment", domain.ActionName(&increment{By: 1}))
	assert.Equal(t, "custom.name", domain.ActionName(named{}))
	assert.Equal(t, "string", domain.ActionName("ping"))
	assert.Equal(t, "<nil>", domain.ActionName(nil))
}
