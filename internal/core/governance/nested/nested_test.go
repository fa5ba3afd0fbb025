package nested

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/signature"
	"github.com/weisyn/govsign/pkg/types"
)

type fixture struct {
	teams    []Team
	keypairs map[string]*key.Keypair
}

// newFixture 创建 teamCount 个团队，每队 perTeam 个维护者，身份形如 "a0"、"b1"
func newFixture(t *testing.T, teamCount, perTeam int) *fixture {
	t.Helper()
	f := &fixture{keypairs: make(map[string]*key.Keypair)}
	seed := byte(1)
	for ti := 0; ti < teamCount; ti++ {
		teamID := string(rune('a' + ti))
		team := Team{ID: teamID, Name: "Team " + teamID}
		for mi := 0; mi < perTeam; mi++ {
			kp, err := key.FromSecretBytes(bytes.Repeat([]byte{seed}, key.SecretKeyLength))
			require.NoError(t, err)
			seed++
			identity := fmt.Sprintf("%s%d", teamID, mi)
			f.keypairs[identity] = kp
			team.Maintainers = append(team.Maintainers, Maintainer{Identity: identity, PublicKey: kp.PublicKey()})
		}
		f.teams = append(f.teams, team)
	}
	return f
}

func (f *fixture) sign(t *testing.T, message []byte, identities ...string) []IdentitySignature {
	t.Helper()
	out := make([]IdentitySignature, 0, len(identities))
	for _, id := range identities {
		sig, err := signature.Sign(f.keypairs[id], message)
		require.NoError(t, err)
		out = append(out, IdentitySignature{Identity: id, Signature: sig})
	}
	return out
}

func TestNew(t *testing.T) {
	f := newFixture(t, 3, 3)

	n, err := New(f.teams, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n.TeamsRequired())
	assert.Equal(t, 2, n.MaintainersPerTeamRequired())
	assert.Len(t, n.Teams(), 3)
	assert.Equal(t, "teams 2-of-3, maintainers 2 per team", n.String())

	teamID, ok := n.TeamOf("b1")
	assert.True(t, ok)
	assert.Equal(t, "b", teamID)
	_, ok = n.TeamOf("stranger")
	assert.False(t, ok)
}

func TestNewInvalid(t *testing.T) {
	f := newFixture(t, 3, 3)

	testCases := []struct {
		name          string
		teamsRequired int
		perTeam       int
		kind          types.ErrorKind
	}{
		{name: "团队门限为零", teamsRequired: 0, perTeam: 2, kind: types.KindInvalidThreshold},
		{name: "团队门限超过团队数", teamsRequired: 4, perTeam: 2, kind: types.KindInvalidThreshold},
		{name: "团队内门限为零", teamsRequired: 2, perTeam: 0, kind: types.KindInvalidThreshold},
		{name: "团队成员不足", teamsRequired: 2, perTeam: 4, kind: types.KindInvalidMultisig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := New(f.teams, tc.teamsRequired, tc.perTeam)
			require.Error(t, err)
			assert.Nil(t, n)
			assert.Equal(t, tc.kind, types.KindOf(err))
		})
	}

	_, err := New(f.teams, 2, 0)
	var thresholdErr *types.ErrInvalidThreshold
	require.True(t, errors.As(err, &thresholdErr))
	assert.Equal(t, 3, thresholdErr.Total, "团队内门限错误报告最小团队规模")

	_, err = New(nil, 1, 1)
	assert.Equal(t, types.KindInvalidThreshold, types.KindOf(err))
}

func TestVerifyTwoOfThreeTeams(t *testing.T) {
	f := newFixture(t, 3, 3)
	n, err := New(f.teams, 2, 2)
	require.NoError(t, err)

	message := types.Release{Version: "v1.0.0", CommitHash: "abc123"}.SigningBytes()

	// A、B 各两个签名，C 没有签名
	result := n.Verify(message, f.sign(t, message, "a0", "a1", "b1", "b2"))
	assert.Equal(t, 2, result.TeamsApproved)
	assert.Equal(t, 2, result.TeamsRequired)
	assert.True(t, result.InterTeamApproved)
	assert.Equal(t, 4, result.MaintainersApproved)
	assert.Equal(t, 4, result.MaintainersRequired)
	require.Len(t, result.TeamDetails, 3)
	assert.Equal(t, TeamApprovalStatus{
		TeamID: "c", TeamName: "Team c", MaintainersSigned: 0, MaintainersRequired: 2, Approved: false,
	}, result.TeamDetails[2])
	assert.Equal(t, []string{"c"}, result.MissingTeams())

	// 只有 A 达标，B 和 C 各一个
	result = n.Verify(message, f.sign(t, message, "a0", "a1", "b0", "c2"))
	assert.Equal(t, 1, result.TeamsApproved)
	assert.False(t, result.InterTeamApproved)
	assert.Equal(t, 2, result.MaintainersApproved, "未批准团队的签名不计入")
	assert.Equal(t, 1, result.TeamDetails[1].MaintainersSigned)
	assert.Equal(t, []string{"b", "c"}, result.MissingTeams())
}

func TestVerifyIgnoresUnknownAndForeignSignatures(t *testing.T) {
	f := newFixture(t, 2, 2)
	outsider := newFixture(t, 3, 2) // 种子与 f 重叠的部分不使用
	n, err := New(f.teams, 1, 2)
	require.NoError(t, err)

	message := []byte("MODULE:lightning:v2.0.0")

	sigs := f.sign(t, message, "a0")
	// 未知身份
	sigs = append(sigs, IdentitySignature{Identity: "mallory", Signature: f.sign(t, message, "a1")[0].Signature})
	// 以 a1 的身份提交 b0 的签名：只用 a1 的公钥验证
	sigs = append(sigs, IdentitySignature{Identity: "a1", Signature: f.sign(t, message, "b0")[0].Signature})
	// 外部密钥冒充 b1
	sigs = append(sigs, IdentitySignature{Identity: "b1", Signature: outsider.sign(t, message, "c0")[0].Signature})

	result := n.Verify(message, sigs)
	assert.Equal(t, 0, result.TeamsApproved)
	assert.False(t, result.InterTeamApproved)
	assert.Equal(t, 1, result.TeamDetails[0].MaintainersSigned)
	assert.Equal(t, 0, result.TeamDetails[1].MaintainersSigned)
}

func TestVerifyCountsIdentityOnce(t *testing.T) {
	f := newFixture(t, 1, 3)
	n, err := New(f.teams, 1, 2)
	require.NoError(t, err)

	message := []byte("BUDGET:500:audit")
	sigs := f.sign(t, message, "a0", "a0", "a0")

	result := n.Verify(message, sigs)
	assert.Equal(t, 1, result.TeamDetails[0].MaintainersSigned)
	assert.False(t, result.InterTeamApproved)

	// 无效签名之后的有效签名仍然计数
	bad := f.sign(t, []byte("other"), "a1")
	good := f.sign(t, message, "a1", "a0")
	result = n.Verify(message, append(bad, good...))
	assert.Equal(t, 2, result.TeamDetails[0].MaintainersSigned)
	assert.True(t, result.InterTeamApproved)
}

func TestVerifyWrongMessage(t *testing.T) {
	f := newFixture(t, 2, 2)
	n, err := New(f.teams, 2, 2)
	require.NoError(t, err)

	sigs := f.sign(t, []byte("RELEASE:v1:a"), "a0", "a1", "b0", "b1")
	result := n.Verify([]byte("RELEASE:v1:b"), sigs)
	assert.Equal(t, 0, result.TeamsApproved)
	assert.False(t, result.InterTeamApproved)
	assert.Equal(t, 4, result.MaintainersRequired)

	result = n.VerifyMessage(types.Release{Version: "v1", CommitHash: "a"}, sigs)
	assert.True(t, result.InterTeamApproved)

	result = n.Verify([]byte("RELEASE:v1:a"), nil)
	assert.False(t, result.InterTeamApproved)
	assert.Len(t, result.TeamDetails, 2)
}

func TestDuplicateIdentityRejected(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(f *fixture)
	}{
		{
			name: "身份出现在两个团队",
			mutate: func(f *fixture) {
				f.teams[1].Maintainers = append(f.teams[1].Maintainers, f.teams[0].Maintainers[0])
			},
		},
		{
			name: "同一团队内身份重复",
			mutate: func(f *fixture) {
				f.teams[0].Maintainers = append(f.teams[0].Maintainers, f.teams[0].Maintainers[1])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 2, 2)
			tc.mutate(f)

			n, err := New(f.teams, 1, 2)
			require.Error(t, err)
			assert.Nil(t, n)
			assert.Equal(t, types.KindInvalidMultisig, types.KindOf(err))
		})
	}
}

func TestTeamsAreCopied(t *testing.T) {
	f := newFixture(t, 2, 2)
	n, err := New(f.teams, 1, 1)
	require.NoError(t, err)

	f.teams[0].Maintainers[0].Identity = "changed"
	_, ok := n.TeamOf("a0")
	assert.True(t, ok)

	teams := n.Teams()
	teams[0].ID = "mutated"
	assert.Equal(t, "a", n.Teams()[0].ID)
}
