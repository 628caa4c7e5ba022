package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Social struct {
	YouTube   string `json:"youtube,omitempty" bson:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty" bson:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty" bson:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty"`
}

type Experience struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	Company     string             `json:"company" bson:"company"`
	Location    string             `json:"location,omitempty" bson:"location,omitempty"`
	From        time.Time          `json:"from" bson:"from"`
	To          *time.Time         `json:"to,omitempty" bson:"to,omitempty"`
	Current     bool               `json:"current" bson:"current"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
}

type Education struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	School       string             `json:"school" bson:"school"`
	Degree       string             `json:"degree" bson:"degree"`
	FieldOfStudy string             `json:"fieldofstudy" bson:"fieldofstudy"`
	From         time.Time          `json:"from" bson:"from"`
	To           *time.Time         `json:"to,omitempty" bson:"to,omitempty"`
	Current      bool               `json:"current" bson:"current"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
}

// Profile is stored in the profiles collection, one per user.
type Profile struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	User           primitive.ObjectID `json:"user" bson:"user"`
	Company        string             `json:"company,omitempty" bson:"company,omitempty"`
	Website        string             `json:"website" bson:"website"`
	Location       string             `json:"location,omitempty" bson:"location,omitempty"`
	Status         string             `json:"status" bson:"status"`
	Skills         []string           `json:"skills" bson:"skills"`
	Bio            string             `json:"bio,omitempty" bson:"bio,omitempty"`
	GitHubUsername string             `json:"githubusername,omitempty" bson:"githubusername,omitempty"`
	Experience     []Experience       `json:"experience" bson:"experience"`
	Education      []Education        `json:"education" bson:"education"`
	Social         Social             `json:"social" bson:"social"`
	Date           time.Time          `json:"date" bson:"date"`
}

// Normalize replaces nil lists so they encode as [] rather than null.
func (p *Profile) Normalize() {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
}

// PopulatedProfile is a profile whose user reference has been resolved.
// Its User field shadows the embedded id in JSON output.
type PopulatedProfile struct {
	Profile `bson:",inline"`
	User    *PublicUser `json:"user" bson:"-"`
}

// ProfileFields is the normalized content written by an upsert.
type ProfileFields struct {
	Company        string
	Website        string
	Location       string
	Status         string
	Skills         []string
	Bio            string
	GitHubUsername string
	Social         Social
}

type ProfileRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Bio            string `json:"bio"`
	Status         string `json:"status" validate:"required" msg:"Status is required"`
	Skills         Skills `json:"skills" validate:"required,min=1" msg:"Skills is required"`
	GitHubUsername string `json:"githubusername"`
	YouTube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Facebook       string `json:"facebook"`
	LinkedIn       string `json:"linkedin"`
	Instagram      string `json:"instagram"`
}

// Skills accepts either a JSON array or a comma-separated string.
type Skills []string

func (s *Skills) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SplitSkills(raw)
	return nil
}

// SplitSkills turns "js, node , css" into ["js", "node", "css"]. Blank entries are dropped.
func SplitSkills(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type ExperienceRequest struct {
	Title       string `json:"title" validate:"required" msg:"Title is required"`
	Company     string `json:"company" validate:"required" msg:"Company is required"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required,daterange" msg:"From date is required and needs to be from the past"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationRequest struct {
	School       string `json:"school" validate:"required" msg:"School is required"`
	Degree       string `json:"degree" validate:"required" msg:"Degree is required"`
	FieldOfStudy string `json:"fieldofstudy" validate:"required" msg:"Field of study is required"`
	From         string `json:"from" validate:"required,daterange" msg:"From date is required and needs to be from the past"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

// Experience converts a validated request into a new list entry.
func (r *ExperienceRequest) Experience() (Experience, error) {
	from, to, err := parseRange(r.From, r.To)
	if err != nil {
		return Experience{}, err
	}
	return Experience{
		ID:          primitive.NewObjectID(),
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		From:        from,
		To:          to,
		Current:     r.Current,
		Description: r.Description,
	}, nil
}

func (r *EducationRequest) Education() (Education, error) {
	from, to, err := parseRange(r.From, r.To)
	if err != nil {
		return Education{}, err
	}
	return Education{
		ID:           primitive.NewObjectID(),
		School:       r.School,
		Degree:       r.Degree,
		FieldOfStudy: r.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      r.Current,
		Description:  r.Description,
	}, nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func parseRange(fromRaw, toRaw string) (time.Time, *time.Time, error) {
	from, err := ParseDate(fromRaw)
	if err != nil {
		return time.Time{}, nil, err
	}
	if strings.TrimSpace(toRaw) == "" {
		return from, nil, nil
	}
	to, err := ParseDate(toRaw)
	if err != nil {
		return time.Time{}, nil, err
	}
	return from, &to, nil
}
