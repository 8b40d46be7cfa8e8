package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/clipstream/backend/internal/logger"
	"github.com/clipstream/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating communities...")
	communities, err := s.seedCommunities(users, 10)
	if err != nil {
		return fmt.Errorf("failed to seed communities: %w", err)
	}

	log("Creating memberships...")
	if err := s.seedMemberships(users, communities); err != nil {
		return fmt.Errorf("failed to seed memberships: %w", err)
	}

	log("Creating videos...")
	videos, err := s.seedVideos(users, communities, 200)
	if err != nil {
		return fmt.Errorf("failed to seed videos: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, 150); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating likes and comments...")
	if err := s.seedEngagement(users, videos); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	return nil
}

// Clean removes all seeded data. Dev convenience only.
func (s *Seeder) Clean() error {
	tables := []string{
		"wallet_transactions", "referrals", "likes", "comments",
		"upload_events", "videos", "community_members", "follows",
		"communities", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	// One shared password for all dev accounts
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Email:        fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.Sentence(8),
			AvatarURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%d", i),
			PasswordHash: &hashStr,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedCommunities(users []models.User, count int) ([]models.Community, error) {
	communities := make([]models.Community, 0, count)
	for i := 0; i < count; i++ {
		owner := users[rand.Intn(len(users))]
		community := models.Community{
			Name:        fmt.Sprintf("%s %s %d", gofakeit.HipsterWord(), gofakeit.NounAbstract(), i),
			Description: gofakeit.Sentence(12),
			OwnerID:     owner.ID,
			MemberCount: 1,
		}
		if err := s.db.Create(&community).Error; err != nil {
			return nil, err
		}
		member := models.CommunityMember{
			CommunityID: community.ID,
			UserID:      owner.ID,
			Role:        "owner",
		}
		if err := s.db.Create(&member).Error; err != nil {
			return nil, err
		}
		communities = append(communities, community)
	}
	return communities, nil
}

func (s *Seeder) seedMemberships(users []models.User, communities []models.Community) error {
	for _, user := range users {
		// Each user joins a few random communities
		joined := map[string]bool{}
		for i := 0; i < 3; i++ {
			community := communities[rand.Intn(len(communities))]
			if joined[community.ID] || community.OwnerID == user.ID {
				continue
			}
			joined[community.ID] = true

			member := models.CommunityMember{
				CommunityID: community.ID,
				UserID:      user.ID,
				Role:        "member",
			}
			if err := s.db.Create(&member).Error; err != nil {
				continue // unique index collisions are fine here
			}
			s.db.Model(&models.Community{}).Where("id = ?", community.ID).
				UpdateColumn("member_count", gorm.Expr("member_count + 1"))
		}
	}
	return nil
}

func (s *Seeder) seedVideos(users []models.User, communities []models.Community, count int) ([]models.Video, error) {
	videos := make([]models.Video, 0, count)
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		community := communities[rand.Intn(len(communities))]

		video := models.Video{
			UserID:           user.ID,
			CommunityID:      community.ID,
			Title:            gofakeit.Sentence(4),
			Description:      gofakeit.Paragraph(1, 2, 8, " "),
			OriginalFilename: gofakeit.Word() + ".mp4",
			VideoURL:         fmt.Sprintf("https://cdn.example.com/videos/dev/%d.mp4", i),
			FileSize:         int64(gofakeit.Number(1_000_000, 80_000_000)),
			Duration:         float64(gofakeit.Number(5, 90)),
			Status:           "ready",
			IsPublic:         true,
			CreatedAt:        gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		}
		if err := s.db.Create(&video).Error; err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}

		follow := models.Follow{
			FollowerID: follower.ID,
			FolloweeID: followee.ID,
		}
		if err := s.db.Create(&follow).Error; err != nil {
			continue
		}
		s.db.Model(&models.User{}).Where("id = ?", followee.ID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))
		s.db.Model(&models.User{}).Where("id = ?", follower.ID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1"))
	}
	return nil
}

func (s *Seeder) seedEngagement(users []models.User, videos []models.Video) error {
	for _, video := range videos {
		likeCount := rand.Intn(10)
		for i := 0; i < likeCount; i++ {
			user := users[rand.Intn(len(users))]
			like := models.Like{UserID: user.ID, VideoID: video.ID}
			if err := s.db.Create(&like).Error; err != nil {
				continue
			}
		}

		commentCount := rand.Intn(5)
		for i := 0; i < commentCount; i++ {
			user := users[rand.Intn(len(users))]
			comment := models.Comment{
				VideoID: video.ID,
				UserID:  user.ID,
				Content: gofakeit.Sentence(10),
			}
			if err := s.db.Create(&comment).Error; err != nil {
				continue
			}
		}

		s.db.Model(&models.Video{}).Where("id = ?", video.ID).
			UpdateColumns(map[string]interface{}{
				"like_count":    likeCount,
				"comment_count": commentCount,
				"view_count":    gofakeit.Number(0, 5000),
			})
	}
	return nil
}
