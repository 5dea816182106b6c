package cmd

import (
	"fmt"

	"RaspCD/storage"

	"github.com/spf13/cobra"
)

var (
	coverStats  bool
	coverDelete string
)

var minioCmd = &cobra.Command{
	Use:   "covers",
	Short: "封面存储管理",
	Long:  `查看和管理 MinIO 中缓存的专辑封面，支持列出封面、查看统计信息和删除指定封面。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !storage.Enabled(cfg) {
			return fmt.Errorf("MINIO_ENDPOINT 未配置")
		}
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewCoverStore(cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		ctx := cmd.Context()

		switch {
		case coverDelete != "":
			if err := store.Delete(ctx, coverDelete); err != nil {
				return err
			}
			fmt.Printf("已删除封面: %s\n", coverDelete)

		case coverStats:
			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("封面数量: %d\n总大小: %s\n", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
			if !stats.LastModified.IsZero() {
				fmt.Printf("最后更新: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
			}

		default:
			covers, err := store.List(ctx)
			if err != nil {
				return err
			}
			for _, c := range covers {
				fmt.Printf("%s  %10s  %s\n", c.ReleaseID, storage.FormatSize(c.Size), c.LastModified.Format("2006-01-02 15:04:05"))
			}
			fmt.Printf("共 %d 个封面\n", len(covers))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().BoolVarP(&coverStats, "stats", "s", false, "显示封面存储统计信息")
	minioCmd.Flags().StringVarP(&coverDelete, "delete", "d", "", "删除指定 release id 的封面")

	minioCmd.Example = `  # 列出所有封面
  raspcd covers

  # 显示统计信息
  raspcd covers -s

  # 删除一个封面
  raspcd covers -d 76df3287-6cda-33eb-8e9a-044b5e15ffdd`
}
