package models

import "time"

type Role string

const (
	RoleInvestor     Role = "investor"
	RoleEntrepreneur Role = "entrepreneur"
)

// EntrepreneurProfile is the role-specific payload of an entrepreneur.
type EntrepreneurProfile struct {
	StartupName  string `bson:"startup_name,omitempty" json:"startupName,omitempty"`
	PitchSummary string `bson:"pitch_summary,omitempty" json:"pitchSummary,omitempty"`
	FundingNeed  string `bson:"funding_need,omitempty" json:"fundingNeed,omitempty"`
	Industry     string `bson:"industry,omitempty" json:"industry,omitempty"`
	Location     string `bson:"location,omitempty" json:"location,omitempty"`
	PitchDeckURL string `bson:"pitch_deck_url,omitempty" json:"pitchDeckUrl,omitempty"`
}

// InvestorProfile is the role-specific payload of an investor.
type InvestorProfile struct {
	InvestmentInterests []string `bson:"investment_interests,omitempty" json:"investmentInterests,omitempty"`
	PortfolioCompanies  []string `bson:"portfolio_companies,omitempty" json:"portfolioCompanies,omitempty"`
	TotalInvestments    int      `bson:"total_investments,omitempty" json:"totalInvestments,omitempty"`
	MinimumInvestment   string   `bson:"minimum_investment,omitempty" json:"minimumInvestment,omitempty"`
	MaximumInvestment   string   `bson:"maximum_investment,omitempty" json:"maximumInvestment,omitempty"`
}

type User struct {
	ID                  string               `bson:"_id" json:"_id"`
	Name                string               `bson:"name" json:"name"`
	Email               string               `bson:"email" json:"email"`
	PasswordHash        string               `bson:"password_hash" json:"-"`
	Role                Role                 `bson:"role" json:"role"`
	Bio                 string               `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL           string               `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	EntrepreneurProfile *EntrepreneurProfile `bson:"entrepreneur_profile,omitempty" json:"entrepreneurProfile,omitempty"`
	InvestorProfile     *InvestorProfile     `bson:"investor_profile,omitempty" json:"investorProfile,omitempty"`
	Connections         []string             `bson:"connections" json:"connections"`
	CreatedAt           time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time            `bson:"updated_at" json:"updatedAt"`
}

// UserSummary is the public projection returned in lists.
type UserSummary struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Bio: u.Bio, AvatarURL: u.AvatarURL}
}

func (u *User) ConnectedTo(id string) bool {
	for _, c := range u.Connections {
		if c == id {
			return true
		}
	}
	return false
}
