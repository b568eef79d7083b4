package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRationaleSetDeduplicatesAndSorts(t *testing.T) {
	s := NewRationaleSet(RationaleMandatory, RationaleDataNoNulls)
	s.Add(RationaleMandatory, "", RationaleUniqueNoNulls)

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(RationaleMandatory))
	assert.False(t, s.Has(RationaleDataHasNulls))
	assert.Equal(t, []string{RationaleDataNoNulls, RationaleMandatory, RationaleUniqueNoNulls}, s.Sorted())
}

func TestHasRationale(t *testing.T) {
	d := NullabilityDecision{Rationales: []string{RationalePrimaryKey}}
	assert.True(t, d.HasRationale(RationalePrimaryKey))
	assert.False(t, d.HasRationale(RationaleMandatory))

	fk := ForeignKeyDecision{Rationales: []string{RationaleOrphanRowsPresent}}
	assert.True(t, fk.HasRationale(RationaleOrphanRowsPresent))

	uq := UniqueIndexDecision{}
	assert.False(t, uq.HasRationale(RationaleCleanEvidence))
}
