package config

import (
	"context"
	"errors"
	"io/fs"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"

	"github.com/myna-project/xively/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config 配置管理器
type Config[T any] struct {
	v          *viper.Viper
	decodeOpts []viper.DecoderConfigOption
	value      *T
	l          log.Logger
	mu         sync.RWMutex
	watchers   []func(old, new T)
}

// Option 配置选项
type Option[T any] func(*Config[T])

// WithDefaults 设置默认值
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(c *Config[T]) {
		for k, v := range defaults {
			c.v.SetDefault(k, v)
		}
	}
}

// WithEnv 绑定环境变量，例如前缀 XIVELY 时 http.base_url 对应 XIVELY_HTTP_BASE_URL
func WithEnv[T any](prefix string) Option[T] {
	return func(c *Config[T]) {
		c.v.SetEnvPrefix(prefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		c.v.AutomaticEnv()
	}
}

// WithEnvKeys 显式绑定没有默认值的键，使 Unmarshal 也能从环境变量读取
func WithEnvKeys[T any](keys ...string) Option[T] {
	return func(c *Config[T]) {
		for _, k := range keys {
			_ = c.v.BindEnv(k)
		}
	}
}

// WithDecoderOptions 设置 Unmarshal 使用的解码选项（首次加载和热更新都会使用）
func WithDecoderOptions[T any](opts ...viper.DecoderConfigOption) Option[T] {
	return func(c *Config[T]) {
		c.decodeOpts = append(c.decodeOpts, opts...)
	}
}

// Load 加载配置文件并自动监控变更
func Load[T any](path string, opts ...Option[T]) (*Config[T], error) {
	return load(path, false, opts...)
}

// LoadOptional 与 Load 相同，但配置文件不存在时只使用默认值和环境变量，且不监控文件
func LoadOptional[T any](path string, opts ...Option[T]) (*Config[T], error) {
	return load(path, true, opts...)
}

func load[T any](path string, optional bool, opts ...Option[T]) (*Config[T], error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}

	c := &Config[T]{v: v}

	for _, opt := range opts {
		opt(c)
	}

	watch := path != ""
	if watch {
		if err := v.ReadInConfig(); err != nil {
			if !optional || !isNotFound(err) {
				return nil, err
			}
			watch = false
		}
	} else if !optional {
		return nil, errors.New("config: empty config file path")
	}

	val, err := c.decode()
	if err != nil {
		return nil, err
	}
	c.value = &val

	if watch {
		c.watch()
	}
	return c, nil
}

func (c *Config[T]) decode() (T, error) {
	var val T
	err := c.v.Unmarshal(&val, c.decodeOpts...)
	return val, err
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Get 获取当前配置（并发安全，返回深拷贝）
func (c *Config[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(*c.value)
}

// Viper 返回底层 viper 实例
func (c *Config[T]) Viper() *viper.Viper {
	return c.v
}

// SetLogger 设置热更新失败和回调 panic 时使用的日志，默认不输出
func (c *Config[T]) SetLogger(l log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.l = l
}

func (c *Config[T]) logger() log.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.l == nil {
		return log.NewNop()
	}
	return c.l
}

// OnChange 注册配置变更回调
func (c *Config[T]) OnChange(callback func(old, new T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

// Changed 比较两个值是否不同
func Changed[T any](old, new T) bool {
	return !reflect.DeepEqual(old, new)
}

// deepCopy 通过 JSON 序列化实现深拷贝
func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

// reloadDelay 合并编辑器保存时产生的多次写事件
const reloadDelay = 100 * time.Millisecond

func (c *Config[T]) watch() {
	d := &debouncer{delay: reloadDelay}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		d.trigger(func() { c.reload(e.Name) })
	})
	c.v.WatchConfig()
}

// debouncer 只执行一段时间内最后一次 trigger 的函数
type debouncer struct {
	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// reload 重新读取文件；失败时保留旧配置并记录日志
func (c *Config[T]) reload(name string) {
	ctx := log.WithFields(context.Background(), "file", name)

	c.mu.Lock()
	prev := *c.value
	if err := c.v.ReadInConfig(); err != nil {
		c.mu.Unlock()
		c.logger().Warnf(ctx, "config: reload skipped: %v", err)
		return
	}
	next, err := c.decode()
	if err != nil {
		c.mu.Unlock()
		c.logger().Warnf(ctx, "config: reload skipped: %v", err)
		return
	}
	c.value = &next
	watchers := slices.Clone(c.watchers)
	c.mu.Unlock()

	if !Changed(prev, next) {
		return
	}
	for _, cb := range watchers {
		c.notify(ctx, cb, deepCopy(prev), deepCopy(next))
	}
}

func (c *Config[T]) notify(ctx context.Context, cb func(old, new T), old, new T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger().Errorf(ctx, "config: change callback panicked: %v", r)
		}
	}()
	cb(old, new)
}
