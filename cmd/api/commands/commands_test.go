package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"taskapp/pkg/auth"
	"taskapp/pkg/config"
)

type CommandsSuite struct {
	suite.Suite
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsSuite))
}

func (s *CommandsSuite) SetupTest() {
	RegisterTestingT(s.T())

	s.T().Setenv("DATABASE_DRIVER", "sqlite")
	s.T().Setenv("DATABASE_PATH", filepath.Join(s.T().TempDir(), "taskapp.db"))
	s.T().Setenv("LOG_LEVEL", "error")
	s.T().Setenv("JWT_SECRET", "commands-test-secret")
}

func (s *CommandsSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func (s *CommandsSuite) TestMigrate() {
	out, err := s.run("migrate", "version")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("No migrations applied"))

	out, err = s.run("migrate", "up")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("Migration up completed successfully"))

	out, err = s.run("migrate", "version")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("Version: 2 (dirty: false)"))

	out, err = s.run("migrate", "up")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("No migrations to run"))

	out, err = s.run("migrate", "down")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("Migration down completed successfully"))
}

func (s *CommandsSuite) TestSeedIsIdempotent() {
	out, err := s.run("seed")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("Created 2 users and 5 tasks"))

	out, err = s.run("seed")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("Created 0 users and 0 tasks"))
}

func (s *CommandsSuite) TestUserLifecycle() {
	out, err := s.run("user", "create", "--username", "carol", "--email", "carol@example.com", "--password", "secret")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("Created user 1 (carol)"))

	out, err = s.run("user", "token", "--username", "carol")
	Expect(err).ToNot(HaveOccurred())

	cfg, err := config.Load()
	Expect(err).ToNot(HaveOccurred())

	userID, err := auth.New(cfg.JWT).VerifyToken(strings.TrimSpace(out))
	Expect(err).ToNot(HaveOccurred())
	Expect(userID).To(Equal(int64(1)))

	out, err = s.run("user", "delete", "--username", "carol")
	Expect(err).ToNot(HaveOccurred())
	Expect(out).To(ContainSubstring("Deleted user 1 (carol)"))

	_, err = s.run("user", "delete", "--username", "carol")
	Expect(err).To(MatchError(ContainSubstring("not found")))
}

func (s *CommandsSuite) TestUserCreateValidation() {
	_, err := s.run("user", "create", "--username", "dave")
	Expect(err).To(MatchError("--password is required"))

	_, err = s.run("user", "create", "--username", "  ", "--password", "secret")
	Expect(err).To(MatchError(ContainSubstring("username")))

	_, err = s.run("user", "create", "--username", "erin", "--email", "not-an-email", "--password", "secret")
	Expect(err).To(MatchError(ContainSubstring("email")))
}

func (s *CommandsSuite) TestUserCreateDuplicate() {
	_, err := s.run("user", "create", "--username", "frank", "--password", "secret")
	Expect(err).ToNot(HaveOccurred())

	_, err = s.run("user", "create", "--username", "frank", "--password", "secret")
	Expect(err).To(MatchError(ContainSubstring("already exists")))
}
