package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/game"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/tournament"
	"github.com/afina/roster/internal/user"
)

type mockUser struct {
	email, password, name, username, bio string
}

func (m mockUser) avatar() string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + m.username
}

var mockPlayers = []mockUser{
	{"player1@afina.org", "player123", "Алексей 'S1mple' Костилев", "s1mple", "Профессиональный игрок в Counter-Strike 2. Специализация: AWPer"},
	{"player2@afina.org", "player123", "Дмитрий 'Dendi' Ишутин", "dendi", "Легендарный игрок в Dota 2. Позиция: Mid"},
	{"player3@afina.org", "player123", "Иван 'Zeus' Тесленко", "zeus", "Опытный игрок в CS2. Роль: IGL"},
	{"player4@afina.org", "player123", "Сергей 'Solo' Березин", "solo", "Профессиональный игрок в Dota 2. Позиция: Support"},
	{"player5@afina.org", "player123", "Андрей 'B1ad3' Городенский", "b1ad3", "Игрок в CS2. Специализация: Rifler"},
	{"player6@afina.org", "player123", "Егор 'flamie' Васильев", "flamie", "Профессиональный игрок в CS2. Роль: Entry Fragger"},
	{"player7@afina.org", "player123", "Александр 's1mple' Костылев", "s1mple2", "Игрок в Valorant. Роль: Duelist"},
	{"player8@afina.org", "player123", "Максим 'Perfecto' Захаров", "perfecto", "Профессиональный игрок в CS2. Позиция: Support"},
}

var mockManagers = []mockUser{
	{"manager1@afina.org", "manager123", "Владимир 'Vlad' Петров", "vlad_manager", "Опытный менеджер киберспортивных команд"},
	{"manager2@afina.org", "manager123", "Ольга 'Olga' Смирнова", "olga_manager", "Менеджер по развитию команд"},
}

type mockTeam struct {
	name, tag, description string
	manager                int
	players                []int
	roles                  []string
}

var mockTeams = []mockTeam{
	{
		name:        "Afina CS2 Team",
		tag:         "AFINA-CS",
		description: "Профессиональная команда по Counter-Strike 2",
		manager:     0,
		players:     []int{0, 2, 4, 5, 7},
		roles:       []string{"AWPer", "IGL", "Rifler", "Entry Fragger", "Support"},
	},
	{
		name:        "Afina Dota 2 Squad",
		tag:         "AFINA-DOTA",
		description: "Команда по Dota 2",
		manager:     1,
		players:     []int{1, 3},
		roles:       []string{"Mid", "Support"},
	},
}

type mockGame struct {
	name, description, icon, color string
	playersPerTeam                 int
}

var mockGames = []mockGame{
	{"Counter-Strike 2", "Тактический шутер от Valve", "🎯", "#F59E0B", 5},
	{"Dota 2", "MOBA от Valve", "🛡️", "#DC2626", 5},
	{"Valorant", "Тактический шутер от Riot Games", "🔫", "#EF4444", 5},
}

type mockTournament struct {
	name, description, start, end, game, status string
	prizePool                                   float64
}

var mockTournaments = []mockTournament{
	{"Afina Championship 2024", "Главный турнир года от Afina. Призовой фонд $100,000", "2024-12-01T10:00:00Z", "2024-12-15T18:00:00Z", "Counter-Strike 2", "UPCOMING", 100000},
	{"Dota 2 Winter Cup", "Зимний кубок по Dota 2", "2024-11-15T12:00:00Z", "2024-11-20T20:00:00Z", "Dota 2", "COMPLETED", 50000},
	{"Valorant Masters", "Турнир по Valorant для лучших команд", "2024-10-01T14:00:00Z", "2024-10-10T22:00:00Z", "Valorant", "COMPLETED", 75000},
	{"CS2 Pro League", "Профессиональная лига по Counter-Strike 2", "2024-12-20T16:00:00Z", "2025-01-05T18:00:00Z", "Counter-Strike 2", "UPCOMING", 150000},
}

// Count is the number of rows of one kind that were created or already
// present.
type Count struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// SeedReport describes a SeedMockData run.
type SeedReport struct {
	Players     Count    `json:"players"`
	Managers    Count    `json:"managers"`
	Teams       Count    `json:"teams"`
	Games       Count    `json:"games"`
	Tournaments Count    `json:"tournaments"`
	Results     []string `json:"results"`
}

func (r *SeedReport) logf(format string, args ...any) {
	r.Results = append(r.Results, fmt.Sprintf(format, args...))
}

// SeedMockData inserts the demo roster. Rows whose email, tag or name already
// exist are left alone, so the operation can be repeated.
func (m *Maintainer) SeedMockData(ctx context.Context) (*SeedReport, error) {
	rep := &SeedReport{Results: []string{}}
	err := m.d.Tx.WithinTx(ctx, func(ctx context.Context) error {
		players := make([]*user.User, 0, len(mockPlayers))
		for _, p := range mockPlayers {
			u, created, err := m.ensureUser(ctx, p, auth.RolePlayer)
			if err != nil {
				return err
			}
			tally(&rep.Players, created)
			rep.logf("player %s (%s): %s", p.name, p.email, outcome(created))
			players = append(players, u)
		}

		managers := make([]*user.User, 0, len(mockManagers))
		for _, p := range mockManagers {
			u, created, err := m.ensureUser(ctx, p, auth.RoleManager)
			if err != nil {
				return err
			}
			tally(&rep.Managers, created)
			rep.logf("manager %s (%s): %s", p.name, p.email, outcome(created))
			managers = append(managers, u)
		}

		for _, t := range mockTeams {
			created, err := m.ensureTeam(ctx, t, managers, players)
			if err != nil {
				return err
			}
			tally(&rep.Teams, created)
			rep.logf("team %s (%s): %s", t.name, t.tag, outcome(created))
		}

		for _, g := range mockGames {
			created, err := m.ensureGame(ctx, g)
			if err != nil {
				return err
			}
			tally(&rep.Games, created)
			rep.logf("game %s: %s", g.name, outcome(created))
		}

		existing, err := m.d.Tournaments.List(ctx)
		if err != nil {
			return err
		}
		names := make(map[string]bool, len(existing))
		for _, t := range existing {
			names[t.Name] = true
		}
		for _, t := range mockTournaments {
			created := !names[t.name]
			if created {
				if err := m.createTournament(ctx, t); err != nil {
					return err
				}
			}
			tally(&rep.Tournaments, created)
			rep.logf("tournament %s: %s", t.name, outcome(created))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "mock data seeded",
		"players", rep.Players.Created,
		"managers", rep.Managers.Created,
		"teams", rep.Teams.Created,
		"games", rep.Games.Created,
		"tournaments", rep.Tournaments.Created,
	)
	return rep, nil
}

func (m *Maintainer) ensureUser(ctx context.Context, p mockUser, role auth.Role) (*user.User, bool, error) {
	u, err := m.d.Users.Repository().GetByEmail(ctx, p.email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, false, err
	}
	avatar := p.avatar()
	u, err = m.d.Users.Create(ctx, user.CreateInput{
		Email:    p.email,
		Password: p.password,
		Name:     &p.name,
		Username: &p.username,
		Role:     string(role),
		Avatar:   &avatar,
		Bio:      &p.bio,
	})
	if err != nil {
		return nil, false, fmt.Errorf("creating %s: %w", p.email, err)
	}
	return u, true, nil
}

func (m *Maintainer) ensureTeam(ctx context.Context, t mockTeam, managers, players []*user.User) (bool, error) {
	taken, err := m.d.Teams.TagTaken(ctx, t.tag, "")
	if err != nil {
		return false, err
	}
	if taken {
		return false, nil
	}
	description := t.description
	created, err := m.d.Teams.Create(ctx, team.CreateParams{
		Name:        t.name,
		Tag:         t.tag,
		Description: &description,
		Status:      team.StatusActive,
		ManagerID:   managers[t.manager].ID,
	})
	if err != nil {
		return false, fmt.Errorf("creating team %s: %w", t.tag, err)
	}
	for i, idx := range t.players {
		role := t.roles[i]
		if _, err := m.d.Teams.AddMember(ctx, team.MemberParams{
			UserID: players[idx].ID,
			TeamID: created.ID,
			Role:   &role,
		}); err != nil {
			return false, fmt.Errorf("adding member to %s: %w", t.tag, err)
		}
	}
	return true, nil
}

func (m *Maintainer) ensureGame(ctx context.Context, g mockGame) (bool, error) {
	taken, err := m.d.GameRepo.NameTaken(ctx, g.name, "")
	if err != nil {
		return false, err
	}
	if taken {
		return false, nil
	}
	_, err = m.d.Games.Create(ctx, game.CreateInput{
		Name:           g.name,
		Description:    &g.description,
		Icon:           &g.icon,
		Color:          &g.color,
		PlayersPerTeam: &g.playersPerTeam,
	})
	if err != nil {
		return false, fmt.Errorf("creating game %s: %w", g.name, err)
	}
	return true, nil
}

func (m *Maintainer) createTournament(ctx context.Context, t mockTournament) error {
	prize := t.prizePool
	_, err := m.d.Tournaments.Create(ctx, tournament.CreateInput{
		Name:        t.name,
		Description: &t.description,
		StartDate:   t.start,
		EndDate:     &t.end,
		PrizePool:   tournament.Amount{Value: &prize, Set: true},
		Game:        &t.game,
		Status:      t.status,
	})
	if err != nil {
		return fmt.Errorf("creating tournament %s: %w", t.name, err)
	}
	return nil
}

func tally(c *Count, created bool) {
	if created {
		c.Created++
	} else {
		c.Existing++
	}
}

func outcome(created bool) string {
	if created {
		return "created"
	}
	return "already exists"
}
