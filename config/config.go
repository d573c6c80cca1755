// server/config/config.go
package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// RequestTimeout bounds every store round-trip issued on behalf of one
	// HTTP request, e.g. "5s".
	RequestTimeout string `mapstructure:"requestTimeout"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// TrackerConfig tunes ETA and trajectory smoothing for ambulance telemetry.
type TrackerConfig struct {
	AssumedSpeedKmh float64 `mapstructure:"assumedSpeedKmh"`
	AnimationSteps  int     `mapstructure:"animationSteps"`
	SnapEpsilonDeg  float64 `mapstructure:"snapEpsilonDeg"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	S3      S3Config      `mapstructure:"s3"`
	Tracker TrackerConfig `mapstructure:"tracker"`
}

// LoadConfig reads config.yaml from path and overlays environment variables.
// A missing file is not an error; env vars alone can configure the server.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.requestTimeout", "SERVER_REQUEST_TIMEOUT")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("tracker.assumedSpeedKmh", "TRACKER_ASSUMED_SPEED_KMH")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.requestTimeout", "5s")
	viper.SetDefault("mongo.dbName", "referral_network")
	viper.SetDefault("tracker.assumedSpeedKmh", 30.0)
	viper.SetDefault("tracker.animationSteps", 24)
	viper.SetDefault("tracker.snapEpsilonDeg", 0.00005)

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
