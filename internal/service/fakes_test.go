package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/repository"
)

// In-memory repository fakes shared by the service tests.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int64
	tickets map[string]*domain.Ticket
	votes   map[string]map[string]domain.VoteType
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[string]*domain.Ticket),
		votes:   make(map[string]map[string]domain.VoteType),
	}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.TicketNumber = domain.FormatTicketNumber(f.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	f.tickets[ticket.ID] = &clone
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (f *fakeTicketRepo) IncrementViews(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket, ok := f.tickets[id]; ok {
		ticket.Views++
	}
	return nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.MineUserID != nil {
			mine := ticket.CreatedBy == *filter.MineUserID ||
				(ticket.AssignedTo != nil && *ticket.AssignedTo == *filter.MineUserID)
			if !mine {
				continue
			}
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(ticket.Subject), needle) &&
				!strings.Contains(strings.ToLower(ticket.Description), needle) {
				continue
			}
		}
		matched = append(matched, *ticket)
	}
	total := len(matched)
	if filter.Offset > len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeTicketRepo) StatusCounts(_ context.Context, createdBy *string) (map[domain.TicketStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.TicketStatus]int)
	for _, ticket := range f.tickets {
		if createdBy != nil && ticket.CreatedBy != *createdBy {
			continue
		}
		counts[ticket.Status]++
	}
	return counts, nil
}

func (f *fakeTicketRepo) AssigneeStatusCounts(_ context.Context, userID string) (map[domain.TicketStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.TicketStatus]int)
	for _, ticket := range f.tickets {
		if ticket.AssignedTo != nil && *ticket.AssignedTo == userID {
			counts[ticket.Status]++
		}
	}
	return counts, nil
}

func (f *fakeTicketRepo) CountForUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ticket := range f.tickets {
		if ticket.CreatedBy == userID || (ticket.AssignedTo != nil && *ticket.AssignedTo == userID) {
			count++
		}
	}
	return count, nil
}

func (f *fakeTicketRepo) Mutate(_ context.Context, id string, fn func(*domain.Ticket) error) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	if err := fn(&clone); err != nil {
		return nil, err
	}
	clone.UpdatedAt = time.Now()
	f.tickets[id] = &clone
	result := clone
	return &result, nil
}

func (f *fakeTicketRepo) Vote(_ context.Context, ticketID, userID string, vote domain.VoteType) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return 0, 0, pgx.ErrNoRows
	}
	if f.votes[ticketID] == nil {
		f.votes[ticketID] = make(map[string]domain.VoteType)
	}
	existing, voted := f.votes[ticketID][userID]
	switch {
	case voted && existing == vote:
		return 0, 0, repository.ErrDuplicateVote
	case voted:
		if existing == domain.VoteUp {
			ticket.Upvotes--
			ticket.Downvotes++
		} else {
			ticket.Downvotes--
			ticket.Upvotes++
		}
	case vote == domain.VoteUp:
		ticket.Upvotes++
	default:
		ticket.Downvotes++
	}
	f.votes[ticketID][userID] = vote
	return ticket.Upvotes, ticket.Downvotes, nil
}

func (f *fakeTicketRepo) VotesFor(_ context.Context, ticketID string) ([]domain.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var votes []domain.Vote
	for userID, voteType := range f.votes[ticketID] {
		votes = append(votes, domain.Vote{TicketID: ticketID, UserID: userID, Type: voteType})
	}
	return votes, nil
}

type fakeCategoryRepo struct {
	mu          sync.Mutex
	seq         int
	categories  map[string]*domain.Category
	ticketCount map[string]int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{
		categories:  make(map[string]*domain.Category),
		ticketCount: make(map[string]int),
	}
}

func (f *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	category.ID = fmt.Sprintf("category-%d", f.seq)
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	clone := *category
	f.categories[category.ID] = &clone
	return nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *category
	f.categories[category.ID] = &clone
	return nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	category, ok := f.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (f *fakeCategoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, category := range f.categories {
		if strings.EqualFold(category.Name, name) {
			clone := *category
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCategoryRepo) List(_ context.Context, isActive *bool) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Category
	for _, category := range f.categories {
		if isActive != nil && category.IsActive != *isActive {
			continue
		}
		result = append(result, *category)
	}
	return result, nil
}

func (f *fakeCategoryRepo) TicketCount(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticketCount[id], nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		clone := *user
		repo.users[user.ID] = &clone
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Username, username) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, *user)
	}
	return result, len(result), nil
}

func (f *fakeUserRepo) ListAgents(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.users {
		if user.Role.IsStaff() && user.IsActive {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) ListNotifiableStaff(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.users {
		if user.Role.IsStaff() && user.IsActive && user.NotifyEmail {
			result = append(result, *user)
		}
	}
	return result, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[string][]domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string][]domain.Comment)}
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	comment.ID = fmt.Sprintf("comment-%d", f.seq)
	comment.CreatedAt = time.Now()
	f.comments[comment.TicketID] = append(f.comments[comment.TicketID], *comment)
	return nil
}

func (f *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Comment{}, f.comments[ticketID]...), nil
}

// recordingDispatcher captures published events synchronously.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
