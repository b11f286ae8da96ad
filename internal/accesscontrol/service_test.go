package accesscontrol

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
)

type AccessControlSuite struct {
	suite.Suite
	owner   id.AccountID
	store   *InMemoryStore
	service *Service
}

func TestAccessControlSuite(t *testing.T) {
	suite.Run(t, new(AccessControlSuite))
}

func (s *AccessControlSuite) SetupTest() {
	s.owner = newAccount()
	s.store = NewInMemoryStore(s.owner)
	s.service = New(s.store)
}

func (s *AccessControlSuite) SetupSubTest() {
	s.SetupTest()
}

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

func (s *AccessControlSuite) TestRolesOf() {
	ctx := context.Background()

	s.Run("owner holds the owner role", func() {
		roles, err := s.service.RolesOf(ctx, s.owner)
		s.NoError(err)
		s.Equal([]Role{RoleOwner}, roles)
	})

	s.Run("unknown account holds no roles", func() {
		roles, err := s.service.RolesOf(ctx, newAccount())
		s.NoError(err)
		s.Empty(roles)
	})

	s.Run("admin and distributor stack on one account", func() {
		account := newAccount()
		s.Require().NoError(s.service.SetAdmin(ctx, s.owner, account, true))
		s.Require().NoError(s.service.SetDistributor(ctx, s.owner, account))

		roles, err := s.service.RolesOf(ctx, account)
		s.NoError(err)
		s.ElementsMatch([]Role{RoleAdmin, RoleDistributor}, roles)
	})
}

func (s *AccessControlSuite) TestCapabilities() {
	ctx := context.Background()

	s.Run("owner holds every capability", func() {
		for _, cap := range []Capability{CapManageRoles, CapMint, CapPause, CapBlacklist, CapVerifyIdentity, CapRevokeIdentity, CapSetEligibility, CapDistribute, CapExecuteProposal} {
			ok, err := s.service.HasCapability(ctx, s.owner, cap)
			s.NoError(err)
			s.True(ok, "owner should hold %s", cap)
		}
	})

	s.Run("admin cannot manage roles or distribute", func() {
		admin := newAccount()
		s.Require().NoError(s.service.SetAdmin(ctx, s.owner, admin, true))

		ok, err := s.service.HasCapability(ctx, admin, CapMint)
		s.NoError(err)
		s.True(ok)

		ok, err = s.service.HasCapability(ctx, admin, CapManageRoles)
		s.NoError(err)
		s.False(ok)

		ok, err = s.service.HasCapability(ctx, admin, CapDistribute)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("distributor only distributes", func() {
		distributor := newAccount()
		s.Require().NoError(s.service.SetDistributor(ctx, s.owner, distributor))

		ok, err := s.service.HasCapability(ctx, distributor, CapDistribute)
		s.NoError(err)
		s.True(ok)

		ok, err = s.service.HasCapability(ctx, distributor, CapMint)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("RequireCapability denies with unauthorized", func() {
		err := s.service.RequireCapability(ctx, newAccount(), CapMint)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AccessControlSuite) TestRoleManagement() {
	ctx := context.Background()

	s.Run("only the owner grants admin", func() {
		outsider := newAccount()
		err := s.service.SetAdmin(ctx, outsider, newAccount(), true)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("owner revokes admin", func() {
		admin := newAccount()
		s.Require().NoError(s.service.SetAdmin(ctx, s.owner, admin, true))
		s.Require().NoError(s.service.SetAdmin(ctx, s.owner, admin, false))

		ok, err := s.service.IsAdmin(ctx, admin)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("ownership transfer moves the singleton", func() {
		newOwner := newAccount()
		s.Require().NoError(s.service.TransferOwnership(ctx, s.owner, newOwner))

		roles, err := s.service.RolesOf(ctx, newOwner)
		s.NoError(err)
		s.Equal([]Role{RoleOwner}, roles)

		// The previous owner has lost role management.
		err = s.service.SetAdmin(ctx, s.owner, newAccount(), true)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("redesignating the distributor replaces the previous one", func() {
		first := newAccount()
		second := newAccount()
		s.Require().NoError(s.service.SetDistributor(ctx, s.owner, first))
		s.Require().NoError(s.service.SetDistributor(ctx, s.owner, second))

		roles, err := s.service.RolesOf(ctx, first)
		s.NoError(err)
		s.Empty(roles)

		roles, err = s.service.RolesOf(ctx, second)
		s.NoError(err)
		s.Equal([]Role{RoleDistributor}, roles)
	})

	s.Run("zero accounts are rejected", func() {
		err := s.service.SetAdmin(ctx, s.owner, id.AccountID{}, true)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		err = s.service.TransferOwnership(ctx, s.owner, id.AccountID{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
