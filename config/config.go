package config

import (
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFile is the key/value configuration file read when no path is given.
const DefaultFile = "media_player.conf"

// Player backends.
const (
	PlayerMPV = "mpv"
	PlayerMPD = "mpd"
)

// Config stores the application configuration.
type Config struct {
	Path string // file the values were read from, empty if none

	// Web shell
	WebIP   string
	WebPort int
	Name    string // display name returned by /getMediaPlayerInfo
	WebDir  string

	// Disc and player
	CDDevice      string
	CDDiscIDPath  string
	Player        string
	MPVPath       string
	MPVSocket     string
	MPDAddr       string
	MPDPassword   string
	DefaultVolume int
	PollInterval  time.Duration
	SettleDelay   time.Duration
	PlayerTimeout time.Duration

	// MusicBrainz
	MusicBrainzURL     string
	MusicBrainzContact string
	CoverArtURL        string
	LookupTimeout      time.Duration

	// Redis配置, 主机为空时不启用查询缓存
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL disc library, empty host disables it
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// MinIO cover art store, empty endpoint disables it
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	LogLevel string
	LogFile  string
}

// values resolves keys from the environment first, then the conf file.
type values map[string]string

func (v values) lookup(key string) (string, bool) {
	if value, exists := os.LookupEnv(key); exists {
		return value, true
	}
	value, exists := v[key]
	return value, exists
}

// getEnv gets a value or returns a default value.
func (v values) getEnv(key, fallback string) string {
	if value, exists := v.lookup(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets a value as int or returns a default value.
func (v values) getEnvInt(key string, fallback int) int {
	if value, exists := v.lookup(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func (v values) getEnvBool(key string, fallback bool) bool {
	if value, exists := v.lookup(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func (v values) getEnvMillis(key string, fallback time.Duration) time.Duration {
	ms := v.getEnvInt(key, int(fallback/time.Millisecond))
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// Load reads the key/value file at path (DefaultFile when empty) and overlays
// environment variables. A missing file is not an error; defaults apply.
func Load(path string) *Config {
	if path == "" {
		path = DefaultFile
	}

	file, err := godotenv.Read(path)
	if err != nil {
		log.Printf("No config file at %s, relying on environment variables and defaults.", path)
		file = map[string]string{}
		path = ""
	}
	return fromValues(values(file), path)
}

func fromValues(v values, path string) *Config {
	return &Config{
		Path: path,

		WebIP:   v.getEnv("WEB_IP", "0.0.0.0"),
		WebPort: v.getEnvInt("WEB_PORT", 5000),
		Name:    v.getEnv("NAME", "RaspCD"),
		WebDir:  v.getEnv("WEB_DIR", "web"),

		CDDevice:      v.getEnv("CD_DEVICE", "/dev/cdrom"),
		CDDiscIDPath:  v.getEnv("CD_DISCID_PATH", "cd-discid"),
		Player:        v.getEnv("PLAYER", PlayerMPV),
		MPVPath:       v.getEnv("MPV_PATH", "mpv"),
		MPVSocket:     v.getEnv("MPV_SOCKET", "/tmp/raspcd-mpv.sock"),
		MPDAddr:       v.getEnv("MPD_ADDR", "localhost:6600"),
		MPDPassword:   v.getEnv("MPD_PASSWORD", ""),
		DefaultVolume: v.getEnvInt("DEFAULT_VOLUME", 95),
		PollInterval:  v.getEnvMillis("POLL_INTERVAL_MS", 200*time.Millisecond),
		SettleDelay:   v.getEnvMillis("SETTLE_DELAY_MS", time.Second),
		PlayerTimeout: v.getEnvMillis("PLAYER_TIMEOUT_MS", 2*time.Second),

		MusicBrainzURL:     v.getEnv("MUSICBRAINZ_URL", "https://musicbrainz.org"),
		MusicBrainzContact: v.getEnv("MUSICBRAINZ_CONTACT", "raspcd@localhost"),
		CoverArtURL:        v.getEnv("COVERART_URL", "https://coverartarchive.org"),
		LookupTimeout:      v.getEnvMillis("LOOKUP_TIMEOUT_MS", 10*time.Second),

		RedisHost:     v.getEnv("REDIS_HOST", ""),
		RedisPort:     v.getEnv("REDIS_PORT", "6379"),
		RedisPassword: v.getEnv("REDIS_PASSWORD", ""),
		RedisDB:       v.getEnvInt("REDIS_DB", 0),

		DBHost:     v.getEnv("DB_HOST", ""),
		DBPort:     v.getEnv("DB_PORT", "3306"),
		DBUser:     v.getEnv("DB_USER", "root"),
		DBPassword: v.getEnv("DB_PASSWORD", ""),
		DBName:     v.getEnv("DB_NAME", "raspcd"),

		MinioEndpoint:  v.getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: v.getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: v.getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    v.getEnv("MINIO_BUCKET", "raspcd"),
		MinioUseSSL:    v.getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    v.getEnv("MINIO_REGION", "us-east-1"),

		LogLevel: v.getEnv("LOG_LEVEL", "info"),
		LogFile:  v.getEnv("LOG_FILE", ""),
	}
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.WebIP, strconv.Itoa(c.WebPort))
}
