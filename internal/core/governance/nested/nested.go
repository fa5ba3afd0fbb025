// Package nested 提供团队嵌套多签策略
//
// 🏛️ **两级门限**：
//   - 团队内：团队的有效签名数 >= maintainersPerTeamRequired 时团队批准
//   - 团队间：批准的团队数 >= teamsRequired 时整体批准
//
// **验证规则**：
//   - 签名按身份归属到团队；未知身份的签名直接忽略
//   - 身份的签名只用该身份自己声明的公钥验证，不会尝试队友的公钥
//   - 同一身份的多个有效签名只计一次
//   - Verify 永不返回错误，未达门限通过 Result 的字段表达
package nested

import (
	"fmt"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/signature"
	"github.com/weisyn/govsign/pkg/types"
)

// Maintainer 团队维护者
type Maintainer struct {
	Identity  string        `json:"identity"`
	PublicKey key.PublicKey `json:"public_key"`
}

// Team 维护者团队
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Maintainers []Maintainer `json:"maintainers"`
}

// IdentitySignature 带身份的签名提交
type IdentitySignature struct {
	Identity  string              `json:"identity"`
	Signature signature.Signature `json:"signature"`
}

// TeamApprovalStatus 单个团队的批准状态
type TeamApprovalStatus struct {
	TeamID              string `json:"team_id"`
	TeamName            string `json:"team_name"`
	MaintainersSigned   int    `json:"maintainers_signed"`
	MaintainersRequired int    `json:"maintainers_required"`
	Approved            bool   `json:"approved"`
}

// Result 嵌套多签验证结果
//
// MaintainersApproved 只统计已批准团队的有效签名，仅用于展示，不参与门限判断。
type Result struct {
	TeamsApproved       int                  `json:"teams_approved"`
	TeamsRequired       int                  `json:"teams_required"`
	MaintainersApproved int                  `json:"maintainers_approved"`
	MaintainersRequired int                  `json:"maintainers_required"`
	InterTeamApproved   bool                 `json:"inter_team_approved"`
	TeamDetails         []TeamApprovalStatus `json:"team_details"`
}

// memberRef 身份在团队列表中的位置
type memberRef struct {
	team   int
	member int
}

// NestedMultisig 嵌套多签配置，构造后不可变
type NestedMultisig struct {
	teams                      []Team
	teamsRequired              int
	maintainersPerTeamRequired int
	index                      map[string]memberRef
}

// New 创建嵌套多签配置
//
// 参数：
//   - teams: 团队列表
//   - teamsRequired: 需要批准的最少团队数
//   - maintainersPerTeamRequired: 每个团队需要的最少有效签名数
//
// 返回：
//   - error: teamsRequired 为 0 或超过团队数、maintainersPerTeamRequired 为 0 时返回 ErrInvalidThreshold；
//     任一团队成员数少于 maintainersPerTeamRequired 或同一身份出现在多个团队时返回 ErrInvalidMultisig
func New(teams []Team, teamsRequired, maintainersPerTeamRequired int) (*NestedMultisig, error) {
	if teamsRequired <= 0 || teamsRequired > len(teams) {
		return nil, &types.ErrInvalidThreshold{Threshold: teamsRequired, Total: len(teams)}
	}

	if maintainersPerTeamRequired <= 0 {
		return nil, &types.ErrInvalidThreshold{
			Threshold: maintainersPerTeamRequired,
			Total:     smallestTeamSize(teams),
		}
	}

	for _, team := range teams {
		if len(team.Maintainers) < maintainersPerTeamRequired {
			return nil, &types.ErrInvalidMultisig{
				Reason: fmt.Sprintf("团队 %s 有 %d 个维护者，需要 %d 个",
					team.ID, len(team.Maintainers), maintainersPerTeamRequired),
			}
		}
	}

	copied := copyTeams(teams)

	// 每个身份只能属于一个团队
	index := make(map[string]memberRef)
	for ti, team := range copied {
		for mi, m := range team.Maintainers {
			if prev, exists := index[m.Identity]; exists {
				return nil, &types.ErrInvalidMultisig{
					Reason: fmt.Sprintf("维护者 %s 重复出现在团队 %s 与 %s",
						m.Identity, copied[prev.team].ID, team.ID),
				}
			}
			index[m.Identity] = memberRef{team: ti, member: mi}
		}
	}

	return &NestedMultisig{
		teams:                      copied,
		teamsRequired:              teamsRequired,
		maintainersPerTeamRequired: maintainersPerTeamRequired,
		index:                      index,
	}, nil
}

// Verify 验证带身份的签名集合
func (n *NestedMultisig) Verify(message []byte, signatures []IdentitySignature) *Result {
	digest := signature.Digest(message)

	validPerTeam := make([]int, len(n.teams))
	counted := make(map[memberRef]bool)

	for _, submitted := range signatures {
		ref, ok := n.index[submitted.Identity]
		if !ok {
			continue
		}
		if counted[ref] {
			continue
		}

		maintainer := n.teams[ref.team].Maintainers[ref.member]
		if valid, _ := signature.VerifyDigest(submitted.Signature, digest[:], maintainer.PublicKey); valid {
			counted[ref] = true
			validPerTeam[ref.team]++
		}
	}

	result := &Result{
		TeamsRequired:       n.teamsRequired,
		MaintainersRequired: n.teamsRequired * n.maintainersPerTeamRequired,
		TeamDetails:         make([]TeamApprovalStatus, 0, len(n.teams)),
	}

	for i, team := range n.teams {
		approved := validPerTeam[i] >= n.maintainersPerTeamRequired
		if approved {
			result.TeamsApproved++
			result.MaintainersApproved += validPerTeam[i]
		}
		result.TeamDetails = append(result.TeamDetails, TeamApprovalStatus{
			TeamID:              team.ID,
			TeamName:            team.Name,
			MaintainersSigned:   validPerTeam[i],
			MaintainersRequired: n.maintainersPerTeamRequired,
			Approved:            approved,
		})
	}

	result.InterTeamApproved = result.TeamsApproved >= n.teamsRequired
	return result
}

// VerifyMessage 验证治理消息
func (n *NestedMultisig) VerifyMessage(msg types.Message, signatures []IdentitySignature) *Result {
	var message []byte
	if msg != nil {
		message = msg.SigningBytes()
	}
	return n.Verify(message, signatures)
}

// TeamOf 返回身份所属团队的 ID
func (n *NestedMultisig) TeamOf(identity string) (string, bool) {
	ref, ok := n.index[identity]
	if !ok {
		return "", false
	}
	return n.teams[ref.team].ID, true
}

// Teams 返回团队列表的副本
func (n *NestedMultisig) Teams() []Team {
	return copyTeams(n.teams)
}

// TeamsRequired 返回需要批准的团队数
func (n *NestedMultisig) TeamsRequired() int {
	return n.teamsRequired
}

// MaintainersPerTeamRequired 返回每个团队需要的有效签名数
func (n *NestedMultisig) MaintainersPerTeamRequired() int {
	return n.maintainersPerTeamRequired
}

// String 返回 "teams N-of-M, maintainers K per team"
func (n *NestedMultisig) String() string {
	return fmt.Sprintf("teams %d-of-%d, maintainers %d per team",
		n.teamsRequired, len(n.teams), n.maintainersPerTeamRequired)
}

// MissingTeams 返回未批准团队的 ID
func (r *Result) MissingTeams() []string {
	var missing []string
	for _, d := range r.TeamDetails {
		if !d.Approved {
			missing = append(missing, d.TeamID)
		}
	}
	return missing
}

func copyTeams(teams []Team) []Team {
	out := make([]Team, len(teams))
	for i, t := range teams {
		out[i] = Team{
			ID:          t.ID,
			Name:        t.Name,
			Maintainers: append([]Maintainer(nil), t.Maintainers...),
		}
	}
	return out
}

func smallestTeamSize(teams []Team) int {
	if len(teams) == 0 {
		return 0
	}
	smallest := len(teams[0].Maintainers)
	for _, t := range teams[1:] {
		if len(t.Maintainers) < smallest {
			smallest = len(t.Maintainers)
		}
	}
	return smallest
}
