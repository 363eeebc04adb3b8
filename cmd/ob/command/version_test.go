package command_test

import (
	"github.com/opengeos/open-buildings-go/cmd/ob/command"
)

var testVersionInfo = &command.VersionInfo{
	Version: "v1.2.3",
	Commit:  "abc1234",
	Date:    "2026-08-25",
}

func (s *Suite) TestVersion() {
	cmd := &command.VersionCmd{}
	s.Require().NoError(cmd.Run(testVersionInfo))
	s.Equal("v1.2.3\n", string(s.readStdout()))
}

func (s *Suite) TestVersionDetail() {
	cmd := &command.VersionCmd{Detail: true}
	s.Require().NoError(cmd.Run(testVersionInfo))
	s.Equal("v1.2.3 (abc1234 2026-08-25)\n", string(s.readStdout()))
}
