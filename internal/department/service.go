package department

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/validate"
)

type Store interface {
	List(ctx context.Context) ([]Department, error)
	GetBySlug(ctx context.Context, slug string) (*Department, error)
	Create(ctx context.Context, d *Department) error
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type Service struct {
	store Store
	feed  changefeed.Publisher
}

func NewService(store Store, feed changefeed.Publisher) *Service {
	return &Service{store: store, feed: feed}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL slug: "Registrar's Office" -> "registrars-office".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.store.List(ctx)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Department, error) {
	return s.store.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *Service) Create(ctx context.Context, in Input) (*Department, error) {
	d, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	d.ID = uuid.NewString()
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, d.ID, changefeed.OpCreated)
	return d, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Department, error) {
	d, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	d.ID = id
	if err := s.store.Update(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, d.ID, changefeed.OpUpdated)
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, changefeed.OpDeleted)
	return nil
}

// Seed fills an empty directory with the campus offices.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.store.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for _, in := range initialDepartments {
		if _, err := s.Create(ctx, in); err != nil {
			return err
		}
	}
	log.Println("Seeded initial departments.")
	return nil
}

func (s *Service) publish(ctx context.Context, id string, op changefeed.Op) {
	if err := changefeed.Notify(ctx, s.feed, changefeed.Departments, id, op); err != nil {
		log.Printf("department: publish %s: %v", id, err)
	}
}

func fromInput(in Input) (*Department, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	return &Department{
		Name:        in.Name,
		Slug:        slug,
		Icon:        in.Icon,
		Email:       in.Email,
		Phone:       strings.TrimSpace(in.Phone),
		Description: strings.TrimSpace(in.Description),
	}, nil
}

var initialDepartments = []Input{
	{Name: "Academics Office", Slug: "academics-office", Icon: "BookOpen", Email: "academics@nbsc.edu.ph", Phone: "(012) 345-6789", Description: "Handles all academic programs, curriculum, and faculty management."},
	{Name: "Registrar's Office", Slug: "registrars-office", Icon: "FileSignature", Email: "registrar@nbsc.edu.ph", Phone: "(012) 345-6780", Description: "Handles student records, registration, and official documents."},
	{Name: "IT Services", Slug: "it-services", Icon: "Laptop", Email: "itservices@nbsc.edu.ph", Phone: "(012) 345-6781", Description: "Provides technical support and manages campus network systems."},
	{Name: "Student Affairs", Slug: "student-affairs", Icon: "HeartHandshake", Email: "student.affairs@nbsc.edu.ph", Phone: "(012) 345-6782", Description: "Oversees student welfare, activities, and development programs."},
}
