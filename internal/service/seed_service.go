package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-studyhub-api/internal/models"
)

type seedSubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
}

type seedVideoRepository interface {
	Create(ctx context.Context, video *models.VideoLink) error
}

type seedSubject struct {
	name        string
	code        string
	description string
}

type seedVideo struct {
	title       string
	url         string
	description string
	subjectCode string
}

var defaultCatalog = map[int][]seedSubject{
	1: {
		{"Programming Fundamentals", "CS101", "Introduction to programming using C"},
		{"Mathematics I", "MA101", "Calculus and Linear Algebra"},
		{"Physics", "PH101", "Engineering Physics"},
		{"English Communication", "EN101", "Technical Communication Skills"},
	},
	2: {
		{"Data Structures", "CS201", "Arrays, Linked Lists, Trees, Graphs"},
		{"Object Oriented Programming", "CS202", "OOP concepts using Java/C++"},
		{"Mathematics II", "MA201", "Discrete Mathematics and Probability"},
		{"Digital Logic Design", "EC201", "Boolean Algebra, Logic Gates, Circuits"},
	},
	3: {
		{"Database Management Systems", "CS301", "SQL, Normalization, Transactions"},
		{"Operating Systems", "CS302", "Process Management, Memory, File Systems"},
		{"Computer Organization", "CS303", "CPU Architecture, Memory Hierarchy"},
		{"Design and Analysis of Algorithms", "CS304", "Algorithm complexity, Sorting, Graph algorithms"},
	},
	4: {
		{"Computer Networks", "CS401", "OSI Model, TCP/IP, Routing"},
		{"Software Engineering", "CS402", "SDLC, Agile, UML"},
		{"Theory of Computation", "CS403", "Automata, Regular Languages, Turing Machines"},
		{"Microprocessors", "CS404", "8086 Architecture, Assembly Programming"},
	},
	5: {
		{"Web Technologies", "CS501", "HTML, CSS, JavaScript, Web Frameworks"},
		{"Compiler Design", "CS502", "Lexical Analysis, Parsing, Code Generation"},
		{"Machine Learning", "CS503", "Supervised and Unsupervised Learning"},
		{"Information Security", "CS504", "Cryptography, Network Security"},
	},
	6: {
		{"Artificial Intelligence", "CS601", "Search, Knowledge Representation, NLP"},
		{"Cloud Computing", "CS602", "Virtualization, AWS, Azure"},
		{"Mobile App Development", "CS603", "Android/iOS Development"},
		{"Big Data Analytics", "CS604", "Hadoop, Spark, Data Mining"},
	},
	7: {
		{"Deep Learning", "CS701", "Neural Networks, CNN, RNN"},
		{"Blockchain Technology", "CS702", "Distributed Ledgers, Smart Contracts"},
		{"Internet of Things", "CS703", "Sensors, Embedded Systems, IoT Platforms"},
	},
	8: {
		{"Project Work", "CS801", "Final Year Project"},
		{"Professional Ethics", "HS801", "Ethics in Computing"},
	},
}

var defaultVideos = []seedVideo{
	{"Introduction to Data Structures", "https://www.youtube.com/watch?v=RBSGKlAvoiM", "Complete tutorial on Data Structures for beginners", "CS201"},
	{"DBMS Complete Course", "https://www.youtube.com/watch?v=IoL9Ve2SRwQ", "Database Management Systems full tutorial", "CS301"},
}

// SeedService populates an empty catalog with the default curriculum.
type SeedService struct {
	semesters  semesterRepository
	subjects   seedSubjectRepository
	videos     seedVideoRepository
	users      userFinder
	adminEmail string
	logger     *zap.Logger
}

// NewSeedService constructs a SeedService. Videos are attributed to adminEmail.
func NewSeedService(semesters semesterRepository, subjects seedSubjectRepository, videos seedVideoRepository, users userFinder, adminEmail string, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{semesters: semesters, subjects: subjects, videos: videos, users: users, adminEmail: adminEmail, logger: logger}
}

// SeedCatalog creates semesters 1-8 with their default subjects when no semester exists yet.
// Sample videos are added only when the admin account is present. It reports whether seeding ran.
func (s *SeedService) SeedCatalog(ctx context.Context) (bool, error) {
	count, err := s.semesters.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		s.logger.Debug("catalog already populated, skipping seed", zap.Int("semesters", count))
		return false, nil
	}

	subjectIDs := make(map[string]int64)
	for number := models.MinSemesterNumber; number <= models.MaxSemesterNumber; number++ {
		semester := &models.Semester{Number: number, Name: models.DefaultSemesterName(number)}
		if err := s.semesters.Create(ctx, semester); err != nil {
			return false, fmt.Errorf("seed semester %d: %w", number, err)
		}
		for _, entry := range defaultCatalog[number] {
			subject := &models.Subject{Name: entry.name, Code: entry.code, Description: entry.description, SemesterID: semester.ID}
			if err := s.subjects.Create(ctx, subject); err != nil {
				return false, fmt.Errorf("seed subject %s: %w", entry.code, err)
			}
			subjectIDs[entry.code] = subject.ID
		}
	}

	if err := s.seedVideos(ctx, subjectIDs); err != nil {
		return false, err
	}
	s.logger.Info("catalog seeded", zap.Int("semesters", models.MaxSemesterNumber), zap.Int("subjects", len(subjectIDs)))
	return true, nil
}

func (s *SeedService) seedVideos(ctx context.Context, subjectIDs map[string]int64) error {
	admin, err := s.users.FindByEmail(ctx, s.adminEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("admin account missing, skipping sample videos", zap.String("email", s.adminEmail))
			return nil
		}
		return fmt.Errorf("load admin for seed: %w", err)
	}
	for _, entry := range defaultVideos {
		subjectID, ok := subjectIDs[entry.subjectCode]
		if !ok {
			continue
		}
		video := &models.VideoLink{
			Title:        entry.title,
			YoutubeURL:   entry.url,
			ThumbnailURL: youtubeThumbnailURL(entry.url),
			EmbedURL:     youtubeEmbedURL(entry.url),
			Description:  entry.description,
			SubjectID:    subjectID,
			AddedBy:      admin.ID,
		}
		if err := s.videos.Create(ctx, video); err != nil {
			return fmt.Errorf("seed video %q: %w", entry.title, err)
		}
	}
	return nil
}
