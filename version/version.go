// Package version 提供构建信息，通过 -ldflags 注入，例如：
//
//	-X github.com/myna-project/xively/version.gitVersion=v1.2.0
//
// CLI 的 version 子命令和 SDK 的 User-Agent 都从这里读取。
package version

import (
	"fmt"
	"runtime"

	"github.com/gosuri/uitable"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// gitVersion 是语义化的版本号，格式为 vMAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]
	gitVersion = "v0.0.0-dev"
	// gitCommit 是 $(git rev-parse HEAD) 的输出
	gitCommit = ""
	// gitTreeState 为 clean 或 dirty
	gitTreeState = ""
	// buildDate 是 ISO8601 格式的构建时间
	buildDate = "1970-01-01T00:00:00Z"
)

// Info 包含了版本信息
type Info struct {
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit,omitempty"`
	GitTreeState string `json:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate"`
	GoVersion    string `json:"goVersion"`
	Compiler     string `json:"compiler"`
	Platform     string `json:"platform"`
}

// String 返回版本号，工作区有未提交修改时追加 -dirty
func (info Info) String() string {
	if info.GitTreeState == "dirty" {
		return info.GitVersion + "-dirty"
	}
	return info.GitVersion
}

// ShortString 仅返回版本号
func (info Info) ShortString() string {
	return info.GitVersion
}

// UserAgent 返回 "<product>/<version> (<platform>)" 形式的 User-Agent
func (info Info) UserAgent(product string) string {
	if info.Platform == "" {
		return product + "/" + info.GitVersion
	}
	return fmt.Sprintf("%s/%s (%s)", product, info.GitVersion, info.Platform)
}

// JSON 以 JSON 格式返回版本信息，indent 为 true 时格式化输出
func (info Info) JSON(indent bool) (string, error) {
	var (
		s   []byte
		err error
	)
	if indent {
		s, err = json.MarshalIndent(info, "", "  ")
	} else {
		s, err = json.Marshal(info)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal version info: %w", err)
	}
	return string(s), nil
}

// Text 以对齐的表格文本返回版本信息，空字段不输出
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	table.AddRow("gitVersion:", info.GitVersion)
	if info.GitCommit != "" {
		table.AddRow("gitCommit:", info.GitCommit)
	}
	if info.GitTreeState != "" {
		table.AddRow("gitTreeState:", info.GitTreeState)
	}
	table.AddRow("buildDate:", info.BuildDate)
	table.AddRow("goVersion:", info.GoVersion)
	table.AddRow("compiler:", info.Compiler)
	table.AddRow("platform:", info.Platform)

	return table.String()
}

// Get 返回当前二进制的构建信息
func Get() Info {
	return Info{
		GitVersion:   gitVersion,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Compiler:     runtime.Compiler,
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
