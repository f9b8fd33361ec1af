package main

import (
	"context"
	"testing"
)

func TestSchemaProvisionerAdapter_RejectsInvalidID(t *testing.T) {
	adapter := &SchemaProvisionerAdapter{pool: nil, migrationsDir: ""}
	if err := adapter.CreateTenantSchema(context.Background(), "bad id!"); err == nil {
		t.Error("expected error for invalid tenant identifier")
	}
}
