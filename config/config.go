package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Cors    Cors
	Session Session
	Cart    Cart
	Rate    Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:4000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:storefront"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:168h"`
}

// Cart holds the retention policy for abandoned guest carts. Guest carts
// older than Retention that were never claimed by a user are deleted by a
// periodic sweep.
type Cart struct {
	Retention     time.Duration `conf:"default:720h"`
	PurgeInterval time.Duration `conf:"default:1h"`
}

// Rate bounds login and signup attempts per client address.
type Rate struct {
	AuthBurst    int           `conf:"default:10"`
	AuthInterval time.Duration `conf:"default:1s"`
	ExpiryMins   int           `conf:"default:60"`
}
