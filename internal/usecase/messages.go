package usecase

import (
	"fmt"
	"strings"
	"time"

	"course-notify-bot/internal/domain"
)

// Тексты уведомлений. Локализация выполняется вне бота.

func sessionReminderText(occ domain.Occurrence, offsetMinutes int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Reminder: %q starts in %s.\n", occ.Topic, humanMinutes(offsetMinutes))
	fmt.Fprintf(&b, "Start time: %s", occ.Start.Format("Monday 15:04"))
	if occ.DurationMinutes > 0 {
		fmt.Fprintf(&b, " (%s)", humanMinutes(occ.DurationMinutes))
	}
	return b.String()
}

func assignmentDigestText(pending []*domain.Assignment, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 You have %d pending assignment(s):\n", len(pending))
	for _, a := range pending {
		fmt.Fprintf(&b, "• %s", a.Title)
		if a.Type != "" {
			fmt.Fprintf(&b, " [%s]", a.Type)
		}
		fmt.Fprintf(&b, " due %s\n", a.Deadline.In(loc).Format("2006-01-02 15:04"))
	}
	b.WriteString("Mark an assignment done once you finish it.")
	return b.String()
}

func weeklyDigestText(stats *domain.WeeklyStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Weekly report %s to %s\n", stats.From.Format("2006-01-02"), stats.To.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total users: %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "New users: %d\n", stats.NewUsers)
	fmt.Fprintf(&b, "Active users: %d\n", stats.ActiveUsers)
	fmt.Fprintf(&b, "Messages: %d\n", stats.ActivityVolume)
	fmt.Fprintf(&b, "Activity rate: %d%%\n", stats.ActivityRate)
	b.WriteString("\nRecommendations:\n")
	for _, r := range recommendations(stats) {
		fmt.Fprintf(&b, "• %s\n", r)
	}
	return strings.TrimRight(b.String(), "\n")
}

// recommendations возвращает подсказки для админов по недельной статистике.
func recommendations(stats *domain.WeeklyStats) []string {
	var out []string
	if stats.NewUsers == 0 {
		out = append(out, "No new users this week: consider promoting the course.")
	}
	if float64(stats.ActivityVolume) < 0.5*float64(stats.TotalUsers) {
		out = append(out, "Message volume is low: try starting a discussion or a quiz.")
	}
	if float64(stats.ActiveUsers) < 0.7*float64(stats.TotalUsers) {
		out = append(out, "Many users were inactive: send a reminder or check in personally.")
	}
	if len(out) == 0 {
		out = append(out, "Great engagement, keep it up!")
	}
	return out
}

func welcomeText(courseName, username string) string {
	name := username
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("👋 Welcome to %s, %s! You will get reminders before every session and about upcoming deadlines.", courseName, name)
}

func humanMinutes(minutes int) string {
	if minutes >= 60 && minutes%60 == 0 {
		hours := minutes / 60
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
