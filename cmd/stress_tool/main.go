package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

// 同一用户对同一视频并发切换点赞，检查最终状态与成功次数一致，且没有重复点赞
func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	token := flag.String("token", "", "access token of the acting user")
	videoID := flag.String("video", "", "published video id")
	total := flag.Int("n", 200, "concurrent toggle requests")
	flag.Parse()

	if *token == "" || *videoID == "" {
		fmt.Println("usage: stress_tool -token <accessToken> -video <videoId> [-n 200]")
		os.Exit(2)
	}

	before, err := likedCount(*baseURL, *token, *videoID)
	if err != nil {
		fmt.Printf("读取初始状态失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("开始压测：%d 个并发点赞切换 (video: %s)...\n", *total, *videoID)

	// 1. 并发切换
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		removed  int
		failures int
	)
	start := time.Now()
	for i := 0; i < *total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := toggle(*baseURL, *token, *videoID)
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case http.StatusCreated:
				created++
			case http.StatusOK:
				removed++
			default:
				failures++
			}
		}()
	}
	wg.Wait()
	duration := time.Since(start)

	// 2. 校验最终状态
	after, err := likedCount(*baseURL, *token, *videoID)
	if err != nil {
		fmt.Printf("读取最终状态失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("QPS: %.2f\n", float64(*total)/duration.Seconds())
	fmt.Printf("created: %d, removed: %d, failed: %d\n", created, removed, failures)
	fmt.Printf("点赞行数: %d -> %d\n", before, after)
	fmt.Println("--------------------------------------------------")

	if after > 1 {
		fmt.Println("FAIL: 出现重复点赞")
		os.Exit(1)
	}
	// 并发新增落败也报告 created，因此只能断言方向
	if (after == 1) != (before+created > removed) {
		fmt.Println("WARN: 最终状态与成功次数的奇偶不一致，请检查并发新增是否收敛")
	}
	fmt.Println("OK")
}

func toggle(baseURL, token, videoID string) int {
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/likes/toggle/v/%s", baseURL, videoID), nil)
	if err != nil {
		return 0
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// likedCount 当前用户点赞列表中该视频出现的次数
func likedCount(baseURL, token, videoID string) (int, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/likes/videos", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result struct {
		Code int `json:"code"`
		Data []struct {
			ID string `json:"_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	if result.Code != 0 {
		return 0, fmt.Errorf("business code %d", result.Code)
	}

	n := 0
	for _, v := range result.Data {
		if v.ID == videoID {
			n++
		}
	}
	return n, nil
}
