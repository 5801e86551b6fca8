package system

import (
	"context"
	"testing"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migratableWorld(admin *entities.Addr) *world {
	w := newWorld()
	w.deploy("C", 1, admin, func(_ *fakeVM, _ executor.EntryPoint, _ []byte) (entities.ContractResult[entities.Response], error) {
		return okResp(entities.Response{Data: []byte("v1")})
	})
	w.codes[2] = entities.CodeInfo{CodeID: 2, Creator: "creator"}
	w.code[2] = func(vm *fakeVM, ep executor.EntryPoint, _ []byte) (entities.ContractResult[entities.Response], error) {
		if ep == executor.Migrate {
			vm.set("migrated", "yes")
		}
		return okResp(entities.Response{Data: []byte("v2")})
	}
	return w
}

func TestEnsureAdmin(t *testing.T) {
	assert.NoError(t, EnsureAdmin("alice", addrPtr("alice")))
	assert.ErrorIs(t, EnsureAdmin("alice", nil), engerrors.ErrImmutableCantMigrate)
	assert.ErrorIs(t, EnsureAdmin("mallory", addrPtr("alice")), engerrors.ErrMustBeAdmin)
}

func TestMigrate(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		w := migratableWorld(addrPtr("alice"))
		data, events, err := Migrate(context.Background(), w.vm("C", "alice", nil), 2, []byte(`{}`))
		require.NoError(t, err)

		assert.Equal(t, []byte("v2"), data)
		require.Len(t, events, 1)
		assert.Equal(t, "migrate", events[0].Type)
		assert.Equal(t, []entities.Attribute{attr("_contract_address", "C"), attr("code_id", "2")}, events[0].Attributes)
		assert.Equal(t, uint64(2), w.metas["C"].CodeID)
		assert.Equal(t, "yes", w.get("C", "migrated"))
		assertClean(t, w)
	})

	t.Run("not admin", func(t *testing.T) {
		w := migratableWorld(addrPtr("alice"))
		_, _, err := Migrate(context.Background(), w.vm("C", "mallory", nil), 2, []byte(`{}`))
		require.ErrorIs(t, err, engerrors.ErrMustBeAdmin)
		assert.Equal(t, uint64(1), w.metas["C"].CodeID)
		assert.Empty(t, w.calls)
	})

	t.Run("immutable", func(t *testing.T) {
		w := migratableWorld(nil)
		_, _, err := Migrate(context.Background(), w.vm("C", "alice", nil), 2, []byte(`{}`))
		require.ErrorIs(t, err, engerrors.ErrImmutableCantMigrate)
		assert.Equal(t, uint64(1), w.metas["C"].CodeID)
	})

	t.Run("unknown code", func(t *testing.T) {
		w := migratableWorld(addrPtr("alice"))
		_, _, err := Migrate(context.Background(), w.vm("C", "alice", nil), 9, []byte(`{}`))
		var codeErr *engerrors.CodeNotFoundError
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, uint64(1), w.metas["C"].CodeID)
	})
}

func TestMigrate_AsSubMessage(t *testing.T) {
	w := migratableWorld(addrPtr("P"))
	w.deploy("P", 3, nil, func(_ *fakeVM, _ executor.EntryPoint, _ []byte) (entities.ContractResult[entities.Response], error) {
		msg := entities.CosmosMsg{Wasm: &entities.WasmMsg{Migrate: &entities.MigrateMsg{
			ContractAddr: "C",
			NewCodeID:    2,
			Msg:          []byte(`{}`),
		}}}
		return okResp(entities.Response{Messages: []entities.SubMsg{subMsg(1, entities.ReplyNever, msg)}})
	})

	data, events, err := Run(context.Background(), w.vm("P", "alice", nil), executor.Execute, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, []string{"execute", "migrate"}, eventTypes(events))
	assert.Equal(t, uint64(2), w.metas["C"].CodeID)
}

func TestUpdateAdmin(t *testing.T) {
	w := migratableWorld(addrPtr("alice"))

	events, err := UpdateAdmin(w.vm("C", "mallory", nil), addrPtr("mallory"))
	require.ErrorIs(t, err, engerrors.ErrMustBeAdmin)
	assert.Nil(t, events)

	events, err = UpdateAdmin(w.vm("C", "alice", nil), addrPtr("bob"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "update_contract_admin", events[0].Type)
	assert.Equal(t, []entities.Attribute{attr("_contract_address", "C"), attr("new_admin", "bob")}, events[0].Attributes)
	require.NotNil(t, w.metas["C"].Admin)
	assert.Equal(t, entities.Addr("bob"), *w.metas["C"].Admin)

	events, err = UpdateAdmin(w.vm("C", "bob", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, []entities.Attribute{attr("_contract_address", "C"), attr("new_admin", "")}, events[0].Attributes)
	assert.Nil(t, w.metas["C"].Admin)

	_, err = UpdateAdmin(w.vm("C", "bob", nil), addrPtr("bob"))
	assert.ErrorIs(t, err, engerrors.ErrImmutableCantMigrate)
	assertClean(t, w)
}

func TestClearAdmin_AsSubMessage(t *testing.T) {
	w := migratableWorld(addrPtr("P"))
	w.deploy("P", 3, nil, func(_ *fakeVM, _ executor.EntryPoint, _ []byte) (entities.ContractResult[entities.Response], error) {
		msg := entities.CosmosMsg{Wasm: &entities.WasmMsg{ClearAdmin: &entities.ClearAdminMsg{ContractAddr: "C"}}}
		return okResp(entities.Response{Messages: []entities.SubMsg{subMsg(1, entities.ReplyNever, msg)}})
	})

	_, events, err := Run(context.Background(), w.vm("P", "alice", nil), executor.Execute, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"execute", "update_contract_admin"}, eventTypes(events))
	assert.Nil(t, w.metas["C"].Admin)
}
