package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string                       { return string(n) }
func (n namedJob) Run(context.Context) (int64, error) { return 0, nil }

func TestRegistryKeepsOrderAndRejectsDuplicates(t *testing.T) {
	reg, err := NewRegistry(namedJob("legal-document-lifecycle"), namedJob("outbox-retention"))
	require.NoError(t, err)

	assert.Error(t, reg.Register(namedJob("outbox-retention")))
	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(namedJob("")))

	jobs := reg.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "legal-document-lifecycle", jobs[0].Name())

	jobs[0] = nil
	assert.NotNil(t, reg.Jobs()[0], "callers get a copy")

	_, err = NewRegistry(namedJob("a"), namedJob("a"))
	assert.Error(t, err)
}
