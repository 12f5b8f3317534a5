package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"offshoreCV/internal/auth"
	"offshoreCV/internal/cache"
	"offshoreCV/internal/cv"
	"offshoreCV/internal/profile"
	"offshoreCV/internal/store"
)

func createAccountCmd(flags *connFlags) *cobra.Command {
	var email, username string
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "创建账号并打印一次性初始密码（首次登录需强制改密）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("missing required flag: --email")
			}
			if username != "" {
				username = profile.NormalizeUsername(username)
				if err := profile.ValidateUsername(username); err != nil {
					return err
				}
			}

			st, err := openStore(flags)
			if err != nil {
				return err
			}

			password, err := auth.GeneratePassword()
			if err != nil {
				return fmt.Errorf("generate password: %w", err)
			}
			hashed, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			account, err := st.CreateAccount(cmd.Context(), email, username, hashed, true)
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("email %q or username %q already exists", email, username)
			}
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "已创建账号（首次登录需强制改密）：\n")
			fmt.Fprintf(out, "档案 ID: %s\n", account.ID)
			fmt.Fprintf(out, "邮箱: %s\n", account.Email)
			fmt.Fprintf(out, "初始密码: %s\n", password)
			fmt.Fprintf(out, "提示：该密码仅显示一次。\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "登录邮箱（必填）")
	cmd.Flags().StringVar(&username, "username", "", "公开用户名（可选）")
	return cmd
}

func auditDefaultsCmd(flags *connFlags) *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "audit-defaults",
		Short: "检查默认公开 CV 的完整性，--repair 时逐个档案修复",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(flags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			anomalies, err := st.AuditDefaults(ctx)
			if err != nil {
				return fmt.Errorf("audit defaults: %w", err)
			}
			out := cmd.OutOrStdout()
			printAnomalies(out, anomalies)
			if !repair || len(anomalies) == 0 {
				return nil
			}

			publicCache, closeCache, err := openPublicCache(flags)
			if err != nil {
				return err
			}
			defer closeCache()

			for _, profileID := range affectedProfiles(anomalies) {
				if _, err := st.RepairDefaults(ctx, profileID); err != nil {
					return fmt.Errorf("repair profile %s: %w", profileID, err)
				}
				fmt.Fprintf(out, "repaired %s\n", profileID)
				invalidatePublicCache(ctx, cmd.ErrOrStderr(), st, publicCache, profileID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "修复发现的异常")
	return cmd
}

func setPlanCmd(flags *connFlags) *cobra.Command {
	var profileID, tier string
	var paid bool
	cmd := &cobra.Command{
		Use:   "set-plan",
		Short: "调整档案的套餐",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(profileID) == "" {
				return errors.New("missing required flag: --profile")
			}
			st, err := openStore(flags)
			if err != nil {
				return err
			}
			publicCache, closeCache, err := openPublicCache(flags)
			if err != nil {
				return err
			}
			defer closeCache()

			ctx := cmd.Context()
			if err := st.SetSubscription(ctx, profileID, tier, paid); err != nil {
				return fmt.Errorf("set plan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %s: tier=%q paid=%t\n", profileID, tier, paid)
			// 套餐决定公开页是否展示推广信息。
			invalidatePublicCache(ctx, cmd.ErrOrStderr(), st, publicCache, profileID)
			return nil
		},
	}
	cmd.Flags().StringVar(&profileID, "profile", "", "档案 ID（必填）")
	cmd.Flags().StringVar(&tier, "tier", "free", "套餐名：free、pro、premium")
	cmd.Flags().BoolVar(&paid, "paid", false, "付费标记")
	return cmd
}

type profileFinder interface {
	FindProfile(ctx context.Context, id string) (profile.Profile, error)
}

// invalidatePublicCache 删除档案对应用户名的公开缓存。数据库写入已成功，
// 失败只告警，缓存最多滞后一个 TTL。
func invalidatePublicCache(ctx context.Context, warn io.Writer, finder profileFinder, publicCache *cache.PublicCV, profileID string) {
	p, err := finder.FindProfile(ctx, profileID)
	if err != nil {
		fmt.Fprintf(warn, "warning: load profile %s for cache invalidation: %v\n", profileID, err)
		return
	}
	if p.Username == "" {
		return
	}
	if err := publicCache.Invalidate(ctx, p.Username); err != nil {
		fmt.Fprintf(warn, "warning: invalidate public cache for %s: %v\n", p.Username, err)
	}
}

func printAnomalies(w io.Writer, anomalies []cv.Anomaly) {
	if len(anomalies) == 0 {
		fmt.Fprintln(w, "no anomalies found")
		return
	}
	for _, a := range anomalies {
		fmt.Fprintf(w, "%-24s profile=%s cv=%s %s\n", a.Kind, a.ProfileID, a.RecordID, a.Detail)
	}
}

// affectedProfiles 按首次出现的顺序去重。
func affectedProfiles(anomalies []cv.Anomaly) []string {
	seen := make(map[string]struct{}, len(anomalies))
	var out []string
	for _, a := range anomalies {
		if _, ok := seen[a.ProfileID]; ok {
			continue
		}
		seen[a.ProfileID] = struct{}{}
		out = append(out, a.ProfileID)
	}
	return out
}
