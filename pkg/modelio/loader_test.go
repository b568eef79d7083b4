package modelio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constrictdb/constrict/pkg/apperrors"
)

const jsonModel = `{
  "modules": [
    {
      "name": "Accounts",
      "entities": [
        {
          "logical_name": "User",
          "schema": "dbo",
          "table_name": "OSUSR_U_USER",
          "is_active": true,
          "attributes": [
            {"name": "Id", "column_name": "ID", "mandatory": true, "is_identifier": true},
            {"name": "Email", "column_name": "EMAIL", "mandatory": true}
          ],
          "indexes": [
            {"name": "IX_USER_EMAIL", "unique": true, "key_columns": ["EMAIL"]}
          ]
        }
      ]
    }
  ]
}`

const yamlModel = `
modules:
  - name: Accounts
    entities:
      - logical_name: User
        schema: dbo
        table_name: OSUSR_U_USER
        is_active: true
        attributes:
          - name: Id
            column_name: ID
            mandatory: true
            is_identifier: true
          - name: Manager
            column_name: MANAGER_ID
            reference:
              target_entity: User
              delete_rule: Ignore
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadModelJSON(t *testing.T) {
	model, err := LoadModel(writeTemp(t, "model.json", jsonModel))
	require.NoError(t, err)

	require.Len(t, model.Modules, 1)
	entity := model.Modules[0].Entities[0]
	assert.Equal(t, "User", entity.LogicalName)
	assert.Equal(t, "OSUSR_U_USER", entity.TableName)
	require.Len(t, entity.Attributes, 2)
	assert.True(t, entity.Attributes[0].IsIdentifier)
	require.Len(t, entity.Indexes, 1)
	assert.True(t, entity.Indexes[0].Unique)
}

func TestLoadModelYAML(t *testing.T) {
	model, err := LoadModel(writeTemp(t, "model.yaml", yamlModel))
	require.NoError(t, err)

	entity := model.Modules[0].Entities[0]
	require.Len(t, entity.Attributes, 2)
	ref := entity.Attributes[1].Reference
	require.NotNil(t, ref)
	assert.Equal(t, "User", ref.TargetEntity)
	assert.Equal(t, "Ignore", ref.DeleteRule)
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, apperrors.ErrModelNotFound)
}

func TestLoadModelMalformed(t *testing.T) {
	_, err := LoadModel(writeTemp(t, "broken.json", "{not json"))
	assert.Error(t, err)

	_, err = LoadModel(writeTemp(t, "broken.yaml", "\t: bad"))
	assert.Error(t, err)
}
