package parser

import (
	"regexp"
	"strings"
)

// 在每个 $ 或 % 开头的参数前插入换行，处理一行内挤了多个键值对的材质文件
var sigilBreakRegex = regexp.MustCompile(`([^\n])\s*([$%]\w+)`)

// ParseVMT 解析 .vmt 材质文本
// 只保留以 $ 或 % 开头的参数，键去掉前缀并转为小写，同名键的值按顺序累加。
// 无法解析的内容返回空文档，不报错。
func ParseVMT(content string) MaterialDocument {
	doc := make(MaterialDocument)

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = sigilBreakRegex.ReplaceAllString(content, "${1}\n${2}")

	for _, line := range strings.Split(content, "\n") {
		// 去掉行尾注释
		if idx := strings.Index(line, "//"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		key := strings.ToLower(trimQuotes(fields[0]))
		if !strings.HasPrefix(key, "$") && !strings.HasPrefix(key, "%") {
			continue
		}
		key = key[1:]

		value := trimQuotes(strings.TrimSpace(strings.Join(fields[1:], " ")))
		if key == "" || value == "" {
			continue
		}
		doc[key] = append(doc[key], value)
	}

	return doc
}

// trimQuotes 去掉首尾各一个双引号
func trimQuotes(s string) string {
	s = strings.TrimPrefix(s, "\"")
	return strings.TrimSuffix(s, "\"")
}
