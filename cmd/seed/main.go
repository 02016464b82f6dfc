package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/config"
	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/internal/container"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

type seedUser struct {
	name, email string
	posts       []application.CreatePostInput
}

// defaultSeedPassword avoids common forbidden words; SEED_PASSWORD overrides it.
const defaultSeedPassword = "guadalupe-demo-42"

func seedPassword() string {
	if v := os.Getenv("SEED_PASSWORD"); v != "" {
		return v
	}
	return defaultSeedPassword
}

var seedUsers = []seedUser{
	{
		name:  "Demo Author",
		email: "author@example.com",
		posts: []application.CreatePostInput{
			{Title: "Hello GraphQL", Body: "First published post.", Published: true},
			{Title: "Work in progress", Body: "Only the author can see this.", Published: false},
		},
	},
	{name: "Demo Reader", email: "reader@example.com"},
}

// Seeds demo users and posts through the application service so every rule
// (hashing, validation, events) applies. Users whose email already exists
// are skipped together with their posts.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	cfg.MailSendEnabled = false
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	if cfg.StoreDriver != "postgres" {
		logger.Warn("STORE_DRIVER is not postgres; seeded data lives only for this process")
	}

	ctx := context.Background()
	cleanup, err := container.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build application")
	}
	defer cleanup()
	svc := container.GetService()
	password := seedPassword()
	if err := svc.Policy.Check(password); err != nil {
		logger.WithError(err).Fatal("seed password rejected by policy; set SEED_PASSWORD")
	}

	var readerToken, firstPost string
	for _, u := range seedUsers {
		auth, err := svc.CreateUser(ctx, application.CreateUserInput{Name: u.name, Email: u.email, Password: password})
		if errors.Is(err, application.ErrEmailTaken) {
			logger.WithField("email", u.email).Info("user exists, skipping")
			continue
		}
		if err != nil {
			logger.WithError(err).WithField("email", u.email).Fatal("seed user failed")
		}
		logger.WithFields(logrus.Fields{"id": auth.User.ID, "email": u.email, "password": password}).Info("seeded user")

		authed := application.WithRequestCredential(ctx, "Bearer "+auth.Token)
		for _, in := range u.posts {
			p, err := svc.CreatePost(authed, in)
			if err != nil {
				logger.WithError(err).WithField("title", in.Title).Fatal("seed post failed")
			}
			if p.Published && firstPost == "" {
				firstPost = p.ID
			}
			logger.WithFields(logrus.Fields{"id": p.ID, "published": p.Published}).Info("seeded post")
		}
		if len(u.posts) == 0 {
			readerToken = auth.Token
		}
	}

	if readerToken != "" && firstPost != "" {
		authed := application.WithRequestCredential(ctx, "Bearer "+readerToken)
		c, err := svc.CreateComment(authed, application.CreateCommentInput{Text: "Nice post!", PostID: firstPost})
		if err != nil {
			logger.WithError(err).Fatal("seed comment failed")
		}
		logger.WithField("id", c.ID).Info("seeded comment")
	}
}
