package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ProfileID identifies a specialization track. ProfileUnset means the
// student has not chosen a track yet.
type ProfileID int

const (
	ProfileUnset            ProfileID = -1
	ProfilePortfolioManager ProfileID = 1
	ProfileFinancialAnalyst ProfileID = 2
	ProfileInvestmentBanker ProfileID = 3
)

const unsetProfileLabel = "Choisis un profil"

var profileLabels = map[ProfileID]string{
	ProfilePortfolioManager: "Gestionnaire de Portefeuille",
	ProfileFinancialAnalyst: "Analyste financier",
	ProfileInvestmentBanker: "Banquier d'affaires",
}

// Profiles lists the selectable tracks in order.
var Profiles = []ProfileID{ProfilePortfolioManager, ProfileFinancialAnalyst, ProfileInvestmentBanker}

// IsSet reports whether a track has been chosen.
func (p ProfileID) IsSet() bool {
	return p != ProfileUnset
}

// IsValid reports whether p is a selectable track.
func (p ProfileID) IsValid() bool {
	_, ok := profileLabels[p]
	return ok
}

// Label is the display name of the track.
func (p ProfileID) Label() string {
	if l, ok := profileLabels[p]; ok {
		return l
	}
	return unsetProfileLabel
}

// ParseProfile parses a numeric profile id.
func ParseProfile(s string) (ProfileID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !ProfileID(n).IsValid() {
		return ProfileUnset, shared.WrapError("catalog", "ParseProfile", shared.ErrInvalidInput,
			fmt.Sprintf("unknown profile %q", s), shared.ErrInvalidProfile)
	}
	return ProfileID(n), nil
}
