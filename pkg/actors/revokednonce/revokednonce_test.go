package revokednonce_test

import (
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/actors/hub/mock"
	"github.com/lendcore/lendcore/pkg/actors/revokednonce"
	"github.com/lendcore/lendcore/pkg/testhelpers"
	tf "github.com/lendcore/lendcore/pkg/testhelpers/testflags"
	"github.com/lendcore/lendcore/pkg/vm/errors"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

type harness struct {
	tv     *testhelpers.TestVM
	hub    *hub.Actor
	ledger *revokednonce.Actor
	owner  address.Address
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		tv:    testhelpers.NewTestVM(1000),
		hub:   hub.NewActor(),
		owner: testhelpers.RequireIDAddress(t, 1),
	}
	h.ledger = revokednonce.NewActor(h.hub)
	h.tv.MustApply(t, h.owner, func(rt runtime.Runtime) error {
		return h.hub.Constructor(rt, h.owner)
	})
	return h
}

func (h *harness) usable(t *testing.T, owner address.Address, space, nonce int64) bool {
	var ok bool
	require.NoError(t, h.tv.Call(owner, func(rt runtime.Runtime) error {
		var err error
		ok, err = h.ledger.IsNonceUsable(rt, owner, big.NewInt(space), big.NewInt(nonce))
		return err
	}))
	return ok
}

func (h *harness) revoked(t *testing.T, owner address.Address, space, nonce int64) bool {
	var ok bool
	require.NoError(t, h.tv.Call(owner, func(rt runtime.Runtime) error {
		var err error
		ok, err = h.ledger.IsNonceRevoked(rt, owner, big.NewInt(space), big.NewInt(nonce))
		return err
	}))
	return ok
}

func (h *harness) space(t *testing.T, owner address.Address) big.Int {
	var s big.Int
	require.NoError(t, h.tv.Call(owner, func(rt runtime.Runtime) error {
		var err error
		s, err = h.ledger.CurrentNonceSpace(rt, owner)
		return err
	}))
	return s
}

func TestInitialState(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)

	assert.True(t, big.Zero().Equals(h.space(t, alice)))
	for _, n := range []int64{0, 1, 42} {
		assert.False(t, h.revoked(t, alice, 0, n))
		assert.False(t, h.revoked(t, alice, 3, n))
		assert.True(t, h.usable(t, alice, 0, n))
		assert.False(t, h.usable(t, alice, 1, n))
	}
}

func TestRevokeNonce(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)

	rcpt := h.tv.MustApply(t, alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonce(rt, big.NewInt(7))
	})
	require.Len(t, rcpt.Events, 1)
	ev := rcpt.Events[0].(*revokednonce.NonceRevoked)
	assert.Equal(t, alice, ev.Owner)
	assert.True(t, ev.Space.IsZero())
	assert.True(t, big.NewInt(7).Equals(ev.Nonce))

	assert.True(t, h.revoked(t, alice, 0, 7))
	assert.False(t, h.usable(t, alice, 0, 7))
	assert.True(t, h.usable(t, alice, 0, 8))

	// Revocation is monotone.
	for i := 0; i < 2; i++ {
		err := h.tv.Call(alice, func(rt runtime.Runtime) error {
			return h.ledger.RevokeNonce(rt, big.NewInt(7))
		})
		var already *revokednonce.NonceAlreadyRevoked
		require.True(t, xerrors.As(err, &already))
		assert.Equal(t, alice, already.Owner)
		assert.True(t, big.NewInt(7).Equals(already.Nonce))
		assert.Equal(t, revokednonce.ErrNonceAlreadyRevoked, errors.CodeOf(err))
		assert.True(t, h.revoked(t, alice, 0, 7))
	}
}

func TestRevokeNonceInSpace(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)

	h.tv.MustApply(t, alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonceInSpace(rt, big.NewInt(5), big.NewInt(1))
	})
	assert.True(t, h.revoked(t, alice, 5, 1))
	assert.False(t, h.revoked(t, alice, 0, 1))
	assert.True(t, h.usable(t, alice, 0, 1))

	err := h.tv.Call(alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonceInSpace(rt, big.NewInt(5), big.NewInt(1))
	})
	assert.Equal(t, revokednonce.ErrNonceAlreadyRevoked, errors.CodeOf(err))
}

func TestRevokeNonceSpace(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)

	h.tv.MustApply(t, alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonce(rt, big.NewInt(3))
	})

	for expected := int64(1); expected <= 3; expected++ {
		var next big.Int
		rcpt := h.tv.MustApply(t, alice, func(rt runtime.Runtime) error {
			var err error
			next, err = h.ledger.RevokeNonceSpace(rt)
			return err
		})
		assert.True(t, big.NewInt(expected).Equals(next))
		require.Len(t, rcpt.Events, 1)
		ev := rcpt.Events[0].(*revokednonce.NonceSpaceRevoked)
		assert.True(t, big.NewInt(expected-1).Equals(ev.PreviousSpace))
	}

	assert.True(t, big.NewInt(3).Equals(h.space(t, alice)))
	// Old revocations stay recorded but old spaces are unusable anyway.
	assert.True(t, h.revoked(t, alice, 0, 3))
	assert.False(t, h.usable(t, alice, 0, 4))
	assert.True(t, h.usable(t, alice, 3, 3))

	bob := testhelpers.RequireIDAddress(t, 11)
	assert.True(t, big.Zero().Equals(h.space(t, bob)))
}

func TestRevokeNoncesIsAtomic(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)

	h.tv.MustApply(t, alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonce(rt, big.NewInt(2))
	})

	before := len(h.tv.Journal.Entries())
	err := h.tv.Call(alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonces(rt, []big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)})
	})
	assert.Equal(t, revokednonce.ErrNonceAlreadyRevoked, errors.CodeOf(err))
	assert.False(t, h.revoked(t, alice, 0, 1))
	assert.False(t, h.revoked(t, alice, 0, 3))
	assert.Equal(t, before, len(h.tv.Journal.Entries()))

	rcpt := h.tv.MustApply(t, alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonces(rt, []big.Int{big.NewInt(1), big.NewInt(3)})
	})
	assert.Len(t, rcpt.Events, 2)
	assert.True(t, h.revoked(t, alice, 0, 1))
	assert.True(t, h.revoked(t, alice, 0, 3))

	err = h.tv.Call(alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonces(rt, []big.Int{big.NewInt(9), big.NewInt(9)})
	})
	assert.Equal(t, revokednonce.ErrNonceAlreadyRevoked, errors.CodeOf(err))
	assert.False(t, h.revoked(t, alice, 0, 9))
}

func TestDelegatedRevokeRequiresTag(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)
	manager := testhelpers.RequireIDAddress(t, 20)

	for _, nonce := range []int64{0, 1, 99} {
		err := h.tv.Call(manager, func(rt runtime.Runtime) error {
			return h.ledger.RevokeNonceFor(rt, alice, big.NewInt(nonce))
		})
		var missing *errors.AddressMissingHubTag
		require.True(t, xerrors.As(err, &missing))
		assert.Equal(t, manager, missing.Addr)
		assert.Equal(t, hub.NonceManagerTag, missing.Tag)

		err = h.tv.Call(manager, func(rt runtime.Runtime) error {
			return h.ledger.RevokeNonceInSpaceFor(rt, alice, big.NewInt(0), big.NewInt(nonce))
		})
		assert.Equal(t, errors.ErrAddressMissingHubTag, errors.CodeOf(err))
	}

	h.tv.MustApply(t, h.owner, func(rt runtime.Runtime) error {
		return h.hub.SetTag(rt, manager, hub.NonceManagerTag, true)
	})

	rcpt := h.tv.MustApply(t, manager, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonceFor(rt, alice, big.NewInt(1))
	})
	assert.Equal(t, alice, rcpt.Events[0].(*revokednonce.NonceRevoked).Owner)
	assert.True(t, h.revoked(t, alice, 0, 1))
	assert.False(t, h.revoked(t, manager, 0, 1))

	h.tv.MustApply(t, manager, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonceInSpaceFor(rt, alice, big.NewInt(4), big.NewInt(1))
	})
	assert.True(t, h.revoked(t, alice, 4, 1))

	err := h.tv.Call(manager, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonceFor(rt, alice, big.NewInt(1))
	})
	assert.Equal(t, revokednonce.ErrNonceAlreadyRevoked, errors.CodeOf(err))
}

func TestDelegatedRevokeWithMockTagSource(t *testing.T) {
	tf.UnitTest(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tv := testhelpers.NewTestVM(1000)
	tags := mock.NewMockTagSource(ctrl)
	ledger := revokednonce.NewActor(tags)
	alice := testhelpers.RequireIDAddress(t, 10)
	manager := testhelpers.RequireIDAddress(t, 20)

	tags.EXPECT().HasTag(gomock.Any(), manager, hub.NonceManagerTag).Return(false, nil)
	err := tv.Call(manager, func(rt runtime.Runtime) error {
		return ledger.RevokeNonceFor(rt, alice, big.NewInt(1))
	})
	assert.Equal(t, errors.ErrAddressMissingHubTag, errors.CodeOf(err))

	tags.EXPECT().HasTag(gomock.Any(), manager, hub.NonceManagerTag).Return(true, nil)
	tv.MustApply(t, manager, func(rt runtime.Runtime) error {
		return ledger.RevokeNonceFor(rt, alice, big.NewInt(1))
	})

	tags.EXPECT().HasTag(gomock.Any(), manager, hub.NonceManagerTag).Return(false, errors.NewFaultError("store down"))
	err = tv.Call(manager, func(rt runtime.Runtime) error {
		return ledger.RevokeNonceFor(rt, alice, big.NewInt(2))
	})
	assert.True(t, errors.IsFault(err))
}

func TestRejectsOutOfRangeValues(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)

	err := h.tv.Call(alice, func(rt runtime.Runtime) error {
		return h.ledger.RevokeNonce(rt, big.NewInt(-1))
	})
	assert.Equal(t, errors.ErrInvalidInputData, errors.CodeOf(err))
}

func TestQueriesRejectMalformedValues(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	alice := testhelpers.RequireIDAddress(t, 10)

	queries := map[string]func(runtime.Runtime, address.Address, big.Int, big.Int) (bool, error){
		"usable":  h.ledger.IsNonceUsable,
		"revoked": h.ledger.IsNonceRevoked,
	}
	for name, query := range queries {
		for _, args := range [][2]big.Int{
			{{}, big.NewInt(1)},
			{big.Zero(), {}},
			{big.NewInt(-1), big.NewInt(1)},
		} {
			err := h.tv.Call(alice, func(rt runtime.Runtime) error {
				_, err := query(rt, alice, args[0], args[1])
				return err
			})
			assert.Equal(t, errors.ErrInvalidInputData, errors.CodeOf(err), name)
		}
	}
}
