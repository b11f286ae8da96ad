package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aidgate/internal/accesscontrol"
	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
)

type LedgerSuite struct {
	suite.Suite
	owner   id.AccountID
	store   *InMemoryStore
	service *Service
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.owner = newAccount()
	s.store = NewInMemoryStore()
	authz := accesscontrol.New(accesscontrol.NewInMemoryStore(s.owner))
	s.service = New(s.store, authz, Info{
		Name:      "Aid Token",
		Symbol:    "AID",
		MaxSupply: 1_000_000,
	})
}

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

// mint is a test helper; the owner always holds the mint capability.
func (s *LedgerSuite) mint(recipient id.AccountID, amount uint64) {
	s.Require().NoError(s.service.Mint(context.Background(), s.owner, recipient, amount))
}

func (s *LedgerSuite) balance(account id.AccountID) uint64 {
	balance, err := s.service.BalanceOf(context.Background(), account)
	s.Require().NoError(err)
	return balance
}

// ============================================================
// Transfer
// ============================================================

func (s *LedgerSuite) TestTransfer() {
	ctx := context.Background()

	s.Run("moves funds between accounts", func() {
		alice, bob := newAccount(), newAccount()
		s.mint(alice, 1000)

		s.NoError(s.service.Transfer(ctx, alice, alice, bob, 300))
		s.Equal(uint64(700), s.balance(alice))
		s.Equal(uint64(300), s.balance(bob))
	})

	s.Run("rejects callers moving someone else's funds", func() {
		alice, bob := newAccount(), newAccount()
		s.mint(alice, 100)

		err := s.service.Transfer(ctx, bob, alice, bob, 50)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(uint64(100), s.balance(alice))
	})

	s.Run("rejects zero amounts", func() {
		alice := newAccount()
		err := s.service.Transfer(ctx, alice, alice, newAccount(), 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects insufficient balance without partial debit", func() {
		alice, bob := newAccount(), newAccount()
		s.mint(alice, 10)

		err := s.service.Transfer(ctx, alice, alice, bob, 11)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
		s.Contains(dErrors.MessageOf(err), "insufficient balance")
		s.Equal(uint64(10), s.balance(alice))
		s.Equal(uint64(0), s.balance(bob))
	})

	s.Run("rejects transfers while paused", func() {
		alice, bob := newAccount(), newAccount()
		s.mint(alice, 100)
		s.Require().NoError(s.service.SetPaused(ctx, s.owner, true))
		defer func() { s.Require().NoError(s.service.SetPaused(ctx, s.owner, false)) }()

		err := s.service.Transfer(ctx, alice, alice, bob, 50)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
		s.Contains(dErrors.MessageOf(err), "paused")
	})

	s.Run("rejects blacklisted participants on either side", func() {
		alice, bob := newAccount(), newAccount()
		s.mint(alice, 100)
		s.Require().NoError(s.service.SetBlacklisted(ctx, s.owner, bob, true))

		err := s.service.Transfer(ctx, alice, alice, bob, 50)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))

		s.Require().NoError(s.service.SetBlacklisted(ctx, s.owner, bob, false))
		s.Require().NoError(s.service.SetBlacklisted(ctx, s.owner, alice, true))

		err = s.service.Transfer(ctx, alice, alice, bob, 50)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
		s.Equal(uint64(100), s.balance(alice))
	})
}

// ============================================================
// Mint / Burn
// ============================================================

func (s *LedgerSuite) TestMint() {
	ctx := context.Background()

	s.Run("grows supply and recipient balance together", func() {
		recipient := newAccount()
		s.mint(recipient, 500)

		supply, err := s.service.TotalSupply(ctx)
		s.NoError(err)
		s.GreaterOrEqual(supply, uint64(500))
		s.Equal(uint64(500), s.balance(recipient))
	})

	s.Run("requires the mint capability", func() {
		outsider := newAccount()
		err := s.service.Mint(ctx, outsider, newAccount(), 100)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("enforces the supply cap", func() {
		store := NewInMemoryStore()
		svc := New(store, accesscontrol.New(accesscontrol.NewInMemoryStore(s.owner)), Info{MaxSupply: 1000})
		recipient := newAccount()
		s.Require().NoError(svc.Mint(ctx, s.owner, recipient, 1000))

		err := svc.Mint(ctx, s.owner, recipient, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeResourceExhausted))

		supply, err := svc.TotalSupply(ctx)
		s.NoError(err)
		s.Equal(uint64(1000), supply)
	})

	s.Run("rejects blacklisted recipients", func() {
		recipient := newAccount()
		s.Require().NoError(s.service.SetBlacklisted(ctx, s.owner, recipient, true))

		err := s.service.Mint(ctx, s.owner, recipient, 100)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
	})
}

func (s *LedgerSuite) TestBurn() {
	ctx := context.Background()

	s.Run("shrinks supply and balance together", func() {
		holder := newAccount()
		s.mint(holder, 400)
		before, err := s.service.TotalSupply(ctx)
		s.Require().NoError(err)

		s.NoError(s.service.Burn(ctx, holder, holder, 150))

		after, err := s.service.TotalSupply(ctx)
		s.NoError(err)
		s.Equal(before-150, after)
		s.Equal(uint64(250), s.balance(holder))
	})

	s.Run("only the holder burns their own funds", func() {
		holder := newAccount()
		s.mint(holder, 100)

		err := s.service.Burn(ctx, s.owner, holder, 50)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects burning more than held", func() {
		holder := newAccount()
		s.mint(holder, 100)

		err := s.service.Burn(ctx, holder, holder, 101)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
		s.Equal(uint64(100), s.balance(holder))
	})
}

// ============================================================
// Batches
// ============================================================

func (s *LedgerSuite) TestBatchMint() {
	ctx := context.Background()

	s.Run("applies all elements in order", func() {
		a, b, c := newAccount(), newAccount(), newAccount()
		applied, err := s.service.BatchMint(ctx, s.owner, []MintRequest{
			{Recipient: a, Amount: 10},
			{Recipient: b, Amount: 20},
			{Recipient: c, Amount: 30},
		})
		s.NoError(err)
		s.Equal(3, applied)
		s.Equal(uint64(10), s.balance(a))
		s.Equal(uint64(20), s.balance(b))
		s.Equal(uint64(30), s.balance(c))
	})

	s.Run("short-circuits on the first failure keeping prior elements", func() {
		a, c := newAccount(), newAccount()
		blocked := newAccount()
		s.Require().NoError(s.service.SetBlacklisted(ctx, s.owner, blocked, true))

		applied, err := s.service.BatchMint(ctx, s.owner, []MintRequest{
			{Recipient: a, Amount: 10},
			{Recipient: blocked, Amount: 20},
			{Recipient: c, Amount: 30},
		})
		s.Error(err)
		s.Equal(1, applied)
		s.Equal(uint64(10), s.balance(a))
		s.Equal(uint64(0), s.balance(c))
	})

	s.Run("rejects empty and oversized batches", func() {
		_, err := s.service.BatchMint(ctx, s.owner, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		oversized := make([]MintRequest, MaxBatchMint+1)
		for i := range oversized {
			oversized[i] = MintRequest{Recipient: newAccount(), Amount: 1}
		}
		_, err = s.service.BatchMint(ctx, s.owner, oversized)
		s.True(dErrors.HasCode(err, dErrors.CodeResourceExhausted))
	})
}

func (s *LedgerSuite) TestBatchBlacklist() {
	ctx := context.Background()

	s.Run("applies updates fail-fast", func() {
		a, b := newAccount(), newAccount()
		applied, err := s.service.BatchBlacklist(ctx, s.owner, []BlacklistRequest{
			{Account: a, Blacklisted: true},
			{Account: id.AccountID{}, Blacklisted: true},
			{Account: b, Blacklisted: true},
		})
		s.Error(err)
		s.Equal(1, applied)

		blocked, err := s.store.Blacklisted(ctx, a)
		s.NoError(err)
		s.True(blocked)
		blocked, err = s.store.Blacklisted(ctx, b)
		s.NoError(err)
		s.False(blocked)
	})
}

// ============================================================
// Conservation
// ============================================================

func (s *LedgerSuite) TestConservation() {
	ctx := context.Background()
	alice, bob, carol := newAccount(), newAccount(), newAccount()

	check := func() {
		supply, err := s.service.TotalSupply(ctx)
		s.Require().NoError(err)
		s.Equal(supply, s.store.Sum(), "sum of balances must equal total supply")
	}

	s.mint(alice, 1000)
	check()

	s.Require().NoError(s.service.Transfer(ctx, alice, alice, bob, 500))
	check()

	s.Require().NoError(s.service.Transfer(ctx, bob, bob, carol, 300))
	check()

	s.Require().NoError(s.service.Burn(ctx, carol, carol, 100))
	check()

	// Failed operations must not disturb the invariant either.
	s.Error(s.service.Transfer(ctx, alice, alice, bob, 10_000))
	check()

	s.Equal(uint64(500), s.balance(alice))
	s.Equal(uint64(200), s.balance(bob))
	s.Equal(uint64(200), s.balance(carol))
}

// ============================================================
// Internal funding primitives
// ============================================================

func (s *LedgerSuite) TestCreditAndMove() {
	ctx := context.Background()

	s.Run("minting credit grows supply under the cap", func() {
		recipient := newAccount()
		before, err := s.service.TotalSupply(ctx)
		s.Require().NoError(err)

		s.NoError(s.service.Credit(ctx, recipient, 50, true))

		after, err := s.service.TotalSupply(ctx)
		s.NoError(err)
		s.Equal(before+50, after)
		s.Equal(uint64(50), s.balance(recipient))
	})

	s.Run("non-minting credit leaves supply alone", func() {
		recipient := newAccount()
		before, err := s.service.TotalSupply(ctx)
		s.Require().NoError(err)

		s.NoError(s.service.Credit(ctx, recipient, 25, false))

		after, err := s.service.TotalSupply(ctx)
		s.NoError(err)
		s.Equal(before, after)
	})

	s.Run("move draws from the source balance", func() {
		treasury, recipient := newAccount(), newAccount()
		s.mint(treasury, 100)

		s.NoError(s.service.Move(ctx, treasury, recipient, 60))
		s.Equal(uint64(40), s.balance(treasury))
		s.Equal(uint64(60), s.balance(recipient))
	})

	s.Run("move rejects insufficient source funds", func() {
		treasury, recipient := newAccount(), newAccount()
		s.mint(treasury, 10)

		err := s.service.Move(ctx, treasury, recipient, 11)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
		s.Equal(uint64(10), s.balance(treasury))
	})
}

// ============================================================
// Failure reasons
// ============================================================

// Paused, blacklisted, supply-cap, and insufficient-balance failures share
// only two codes; the reason narrows them so clients can tell them apart.
func (s *LedgerSuite) TestFailureReasons() {
	ctx := context.Background()

	s.Run("insufficient balance", func() {
		alice, bob := newAccount(), newAccount()
		s.mint(alice, 10)

		err := s.service.Transfer(ctx, alice, alice, bob, 11)
		s.Equal(ReasonInsufficient, dErrors.ReasonOf(err))
	})

	s.Run("supply cap", func() {
		err := s.service.Mint(ctx, s.owner, newAccount(), 1_000_001)
		s.Equal(ReasonSupplyCap, dErrors.ReasonOf(err))
	})

	s.Run("paused ledger", func() {
		s.Require().NoError(s.service.SetPaused(ctx, s.owner, true))
		defer func() {
			s.Require().NoError(s.service.SetPaused(ctx, s.owner, false))
		}()

		err := s.service.Mint(ctx, s.owner, newAccount(), 1)
		s.Equal(ReasonPaused, dErrors.ReasonOf(err))
	})

	s.Run("blacklisted account", func() {
		blocked := newAccount()
		s.Require().NoError(s.service.SetBlacklisted(ctx, s.owner, blocked, true))

		err := s.service.Mint(ctx, s.owner, blocked, 1)
		s.Equal(ReasonBlacklisted, dErrors.ReasonOf(err))
	})

	s.Run("capability failures carry no reason", func() {
		err := s.service.Mint(ctx, newAccount(), newAccount(), 1)
		s.Require().Error(err)
		s.Empty(dErrors.ReasonOf(err))
	})
}
