// gen-token gera um token HS256 para usar com AUTH_MODE=local
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"quadro-kanban/config"
	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

func main() {
	uid := pflag.StringP("uid", "u", "", "id do usuário (claim sub)")
	email := pflag.StringP("email", "e", "", "email do usuário")
	name := pflag.StringP("name", "n", "", "nome de exibição")
	ttl := pflag.Duration("ttl", 24*time.Hour, "validade do token")
	secret := pflag.String("secret", "", "segredo HS256 (padrão: LOCAL_AUTH_SECRET do ambiente/.env)")
	pflag.Parse()

	if *uid == "" {
		fmt.Fprintln(os.Stderr, "--uid é obrigatório")
		pflag.Usage()
		os.Exit(2)
	}

	if *secret == "" {
		os.Setenv("AUTH_MODE", config.AuthModeLocal)
		os.Setenv("GATEWAY", config.GatewayMemory)
		cfg, err := config.Load()
		if err != nil {
			utilities.Logger.Fatalf("Erro ao carregar configuração: %v", err)
		}
		*secret = cfg.LocalAuthSecret
	}

	token, err := session.IssueLocalToken(*secret, session.Session{UserID: *uid, Email: *email, DisplayName: *name}, *ttl)
	if err != nil {
		utilities.Logger.Fatalf("Erro ao gerar token: %v", err)
	}
	fmt.Println(token)
}
