// Package accesscontrol is the role and capability model every other
// component delegates authorization to. Roles are tagged variants with a
// capability set instead of scattered per-component equality checks, so the
// authorization contract lives in exactly one place.
package accesscontrol

// Role is the granted position of an account.
//
// Invariants:
//   - owner is a singleton and always exists after seeding
//   - distributor is a single designated account
//   - admin is an open set maintained by the owner
type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleDistributor Role = "distributor"
)

// Capability is a single privileged action a role may perform.
type Capability string

const (
	CapManageRoles     Capability = "manage_roles"
	CapMint            Capability = "mint"
	CapPause           Capability = "pause"
	CapBlacklist       Capability = "blacklist"
	CapVerifyIdentity  Capability = "verify_identity"
	CapRevokeIdentity  Capability = "revoke_identity"
	CapSetEligibility  Capability = "set_eligibility"
	CapDistribute      Capability = "distribute"
	CapExecuteProposal Capability = "execute_proposal"
)

// capabilities maps each role to what it may do. The owner implicitly holds
// every capability; the map below only lists the non-owner grants.
var capabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapMint:            true,
		CapPause:           true,
		CapBlacklist:       true,
		CapVerifyIdentity:  true,
		CapRevokeIdentity:  true,
		CapSetEligibility:  true,
		CapExecuteProposal: true,
	},
	RoleDistributor: {
		CapDistribute: true,
	},
}

// Grants reports whether the role carries the capability.
func (r Role) Grants(cap Capability) bool {
	if r == RoleOwner {
		return true
	}
	return capabilities[r][cap]
}
