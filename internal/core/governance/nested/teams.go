package nested

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weisyn/govsign/pkg/types"
)

// TeamsFile 团队配置文件格式
type TeamsFile struct {
	Teams                      []Team `json:"teams"`
	TeamsRequired              int    `json:"teams_required,omitempty"`
	MaintainersPerTeamRequired int    `json:"maintainers_per_team_required,omitempty"`
}

// ParseTeams 解析团队配置 JSON
func ParseTeams(data []byte) (*TeamsFile, error) {
	var tf TeamsFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, &types.ErrSerialization{Reason: "解析团队配置", Err: err}
	}
	if len(tf.Teams) == 0 {
		return nil, &types.ErrInvalidMultisig{Reason: "团队配置为空"}
	}
	for i, team := range tf.Teams {
		if team.ID == "" {
			return nil, &types.ErrInvalidMultisig{Reason: fmt.Sprintf("第 %d 个团队缺少 id", i)}
		}
		for j, m := range team.Maintainers {
			if m.Identity == "" {
				return nil, &types.ErrInvalidMultisig{
					Reason: fmt.Sprintf("团队 %s 的第 %d 个维护者缺少 identity", team.ID, j),
				}
			}
			if !m.PublicKey.IsValid() {
				return nil, &types.ErrInvalidMultisig{
					Reason: fmt.Sprintf("维护者 %s 缺少公钥", m.Identity),
				}
			}
		}
	}
	return &tf, nil
}

// LoadTeamsFile 从文件加载团队配置
func LoadTeamsFile(path string) (*TeamsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取团队配置失败: %w", err)
	}
	return ParseTeams(data)
}

// Build 按文件中的门限构建嵌套多签，参数非零时覆盖文件中的值
func (tf *TeamsFile) Build(teamsRequired, maintainersPerTeamRequired int) (*NestedMultisig, error) {
	if teamsRequired == 0 {
		teamsRequired = tf.TeamsRequired
	}
	if maintainersPerTeamRequired == 0 {
		maintainersPerTeamRequired = tf.MaintainersPerTeamRequired
	}
	return New(tf.Teams, teamsRequired, maintainersPerTeamRequired)
}
