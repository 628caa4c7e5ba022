// Package testutil provides in-memory service implementations for handler
// and router tests. They follow the same error contract as the Mongo
// services.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/devconnector/backend/internal/models"
	"github.com/devconnector/backend/internal/services"
)

// Store is a mutex-guarded stand-in for the three collections.
type Store struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]*models.User
	byEmail  map[string]primitive.ObjectID
	profiles map[primitive.ObjectID]*models.Profile // keyed by user id
	posts    map[primitive.ObjectID]*models.Post

	// FailDeleteAt makes DeleteAccount fail at the given step ("posts",
	// "profile" or "user") after applying the earlier ones.
	FailDeleteAt string
}

func NewStore() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]*models.User),
		byEmail:  make(map[string]primitive.ObjectID),
		profiles: make(map[primitive.ObjectID]*models.Profile),
		posts:    make(map[primitive.ObjectID]*models.Post),
	}
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Profiles() *Profiles { return &Profiles{s} }
func (s *Store) Posts() *Posts       { return &Posts{s} }
func (s *Store) Accounts() *Accounts { return &Accounts{s} }

// Counts reports how many users, profiles and posts are stored.
func (s *Store) Counts() (users, profiles, posts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.profiles), len(s.posts)
}

type Users struct{ s *Store }

var _ services.UserService = (*Users)(nil)

func (u *Users) Register(_ context.Context, req *models.RegisterRequest) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	email := services.NormalizeEmail(req.Email)
	if _, ok := u.s.byEmail[email]; ok {
		return nil, services.ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hash),
		Avatar:   services.GravatarURL(email),
		Date:     time.Now().UTC(),
	}
	u.s.users[user.ID] = user
	u.s.byEmail[email] = user.ID
	cp := *user
	return &cp, nil
}

func (u *Users) Login(_ context.Context, req *models.LoginRequest) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	id, ok := u.s.byEmail[services.NormalizeEmail(req.Email)]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	user := u.s.users[id]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, services.ErrInvalidPassword
	}
	cp := *user
	return &cp, nil
}

func (u *Users) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

type Profiles struct{ s *Store }

var _ services.ProfileService = (*Profiles)(nil)

func (p *Profiles) GetByUserID(_ context.Context, userID primitive.ObjectID) (*models.PopulatedProfile, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	prof, ok := p.s.profiles[userID]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	return p.populate(prof), nil
}

func (p *Profiles) List(_ context.Context) ([]*models.PopulatedProfile, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := make([]*models.PopulatedProfile, 0, len(p.s.profiles))
	for _, prof := range p.s.profiles {
		out = append(out, p.populate(prof))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (p *Profiles) populate(prof *models.Profile) *models.PopulatedProfile {
	out := &models.PopulatedProfile{Profile: cloneProfile(prof)}
	if u, ok := p.s.users[prof.User]; ok {
		out.User = &models.PublicUser{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	}
	return out
}

func (p *Profiles) Upsert(_ context.Context, userID primitive.ObjectID, f *models.ProfileFields) (*models.Profile, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	prof, ok := p.s.profiles[userID]
	if !ok {
		prof = &models.Profile{
			ID:         primitive.NewObjectID(),
			User:       userID,
			Experience: []models.Experience{},
			Education:  []models.Education{},
			Date:       time.Now().UTC(),
		}
		p.s.profiles[userID] = prof
	}
	prof.Company = f.Company
	prof.Website = f.Website
	prof.Location = f.Location
	prof.Status = f.Status
	prof.Skills = append([]string{}, f.Skills...)
	prof.Bio = f.Bio
	prof.GitHubUsername = f.GitHubUsername
	prof.Social = f.Social

	cp := cloneProfile(prof)
	return &cp, nil
}

func (p *Profiles) AddExperience(_ context.Context, userID primitive.ObjectID, exp models.Experience) (*models.Profile, error) {
	return p.mutate(userID, func(prof *models.Profile) {
		prof.Experience = append([]models.Experience{exp}, prof.Experience...)
	})
}

func (p *Profiles) AddEducation(_ context.Context, userID primitive.ObjectID, edu models.Education) (*models.Profile, error) {
	return p.mutate(userID, func(prof *models.Profile) {
		prof.Education = append([]models.Education{edu}, prof.Education...)
	})
}

func (p *Profiles) RemoveExperience(_ context.Context, userID primitive.ObjectID, expID string) (*models.Profile, error) {
	return p.mutate(userID, func(prof *models.Profile) {
		kept := prof.Experience[:0:0]
		for _, e := range prof.Experience {
			if e.ID.Hex() != expID {
				kept = append(kept, e)
			}
		}
		prof.Experience = kept
	})
}

func (p *Profiles) RemoveEducation(_ context.Context, userID primitive.ObjectID, eduID string) (*models.Profile, error) {
	return p.mutate(userID, func(prof *models.Profile) {
		kept := prof.Education[:0:0]
		for _, e := range prof.Education {
			if e.ID.Hex() != eduID {
				kept = append(kept, e)
			}
		}
		prof.Education = kept
	})
}

func (p *Profiles) mutate(userID primitive.ObjectID, fn func(*models.Profile)) (*models.Profile, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	prof, ok := p.s.profiles[userID]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	fn(prof)
	cp := cloneProfile(prof)
	return &cp, nil
}

func cloneProfile(p *models.Profile) models.Profile {
	cp := *p
	cp.Skills = append([]string{}, p.Skills...)
	cp.Experience = append([]models.Experience{}, p.Experience...)
	cp.Education = append([]models.Education{}, p.Education...)
	return cp
}

type Posts struct{ s *Store }

var _ services.PostService = (*Posts)(nil)

func (p *Posts) Create(_ context.Context, author *models.User, text string) (*models.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post := models.NewPost(author, text)
	p.s.posts[post.ID] = post
	cp := clonePost(post)
	return &cp, nil
}

func (p *Posts) List(_ context.Context) ([]*models.Post, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := make([]*models.Post, 0, len(p.s.posts))
	for _, post := range p.s.posts {
		cp := clonePost(post)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (p *Posts) GetByID(_ context.Context, postID primitive.ObjectID) (*models.Post, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	post, ok := p.s.posts[postID]
	if !ok {
		return nil, services.ErrPostNotFound
	}
	cp := clonePost(post)
	return &cp, nil
}

func (p *Posts) Delete(_ context.Context, postID, callerID primitive.ObjectID) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	if !ok {
		return services.ErrPostNotFound
	}
	if post.User != callerID {
		return services.ErrNotAuthorized
	}
	delete(p.s.posts, postID)
	return nil
}

func (p *Posts) Like(_ context.Context, postID, callerID primitive.ObjectID) ([]models.Like, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	if !ok {
		return nil, services.ErrPostNotFound
	}
	for _, l := range post.Likes {
		if l.User == callerID {
			return nil, services.ErrAlreadyLiked
		}
	}
	post.Likes = append([]models.Like{{ID: primitive.NewObjectID(), User: callerID}}, post.Likes...)
	return append([]models.Like{}, post.Likes...), nil
}

func (p *Posts) Unlike(_ context.Context, postID, callerID primitive.ObjectID) ([]models.Like, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	if !ok {
		return nil, services.ErrPostNotFound
	}
	kept := make([]models.Like, 0, len(post.Likes))
	for _, l := range post.Likes {
		if l.User != callerID {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(post.Likes) {
		return nil, services.ErrNotLiked
	}
	post.Likes = kept
	return append([]models.Like{}, kept...), nil
}

func (p *Posts) AddComment(_ context.Context, postID primitive.ObjectID, author *models.User, text string) ([]models.Comment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	if !ok {
		return nil, services.ErrPostNotFound
	}
	post.Comments = append([]models.Comment{models.NewComment(author, text)}, post.Comments...)
	return append([]models.Comment{}, post.Comments...), nil
}

func (p *Posts) RemoveComment(_ context.Context, postID primitive.ObjectID, commentID string) ([]models.Comment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	if !ok {
		return nil, services.ErrPostNotFound
	}
	for i, c := range post.Comments {
		if c.ID.Hex() == commentID {
			post.Comments = append(post.Comments[:i:i], post.Comments[i+1:]...)
			return append([]models.Comment{}, post.Comments...), nil
		}
	}
	return nil, services.ErrCommentNotFound
}

func clonePost(p *models.Post) models.Post {
	cp := *p
	cp.Likes = append([]models.Like{}, p.Likes...)
	cp.Comments = append([]models.Comment{}, p.Comments...)
	return cp
}

type Accounts struct{ s *Store }

var _ services.AccountService = (*Accounts)(nil)

var ErrInjected = errors.New("injected failure")

func (a *Accounts) DeleteAccount(_ context.Context, userID primitive.ObjectID) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if a.s.FailDeleteAt == "posts" {
		return ErrInjected
	}
	for id, post := range a.s.posts {
		if post.User == userID {
			delete(a.s.posts, id)
		}
	}
	if a.s.FailDeleteAt == "profile" {
		return ErrInjected
	}
	delete(a.s.profiles, userID)
	if a.s.FailDeleteAt == "user" {
		return ErrInjected
	}
	if u, ok := a.s.users[userID]; ok {
		delete(a.s.byEmail, u.Email)
		delete(a.s.users, userID)
	}
	return nil
}

// Repos is a canned GitHub lookup keyed by username.
type Repos map[string]json.RawMessage

var _ services.RepoLister = Repos(nil)

var ErrNoRepos = errors.New("no such github user")

func (r Repos) ListRepos(_ context.Context, username string) (json.RawMessage, error) {
	body, ok := r[username]
	if !ok {
		return nil, ErrNoRepos
	}
	return body, nil
}
